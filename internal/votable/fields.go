// Package votable renders single observations as VOTable documents.
package votable

// Field describes one column of the exported table.
type Field struct {
	Name        string
	Datatype    string // VOTable primitive: char, int or double
	UCD         string // IVOA unified content descriptor
	Unit        string
	Description string
}

// Fields is the exported column list. Order and UCDs are part of the
// interchange format and must not change.
var Fields = []Field{
	{Name: "date_obs", Datatype: "char", UCD: "time.epoch;obs", Description: "Date and time of the observation"},
	{Name: "naxis1", Datatype: "int", UCD: "instr.pixel;pos.cartesian.x", Unit: "pix", Description: "Image width in pixels"},
	{Name: "naxis2", Datatype: "int", UCD: "instr.pixel;pos.cartesian.y", Unit: "pix", Description: "Image height in pixels"},
	{Name: "temperature", Datatype: "double", UCD: "phys.temperature;instr", Unit: "Celsius", Description: "Sensor temperature"},
	{Name: "exptime", Datatype: "double", UCD: "time.duration;obs.exposure", Unit: "s", Description: "Exposure time"},
	{Name: "exposure", Datatype: "double", UCD: "time.duration;obs.exposure", Unit: "s", Description: "Exposure duration"},
	{Name: "ra", Datatype: "char", UCD: "pos.eq.ra;meta.main", Description: "Right ascension (sexagesimal)"},
	{Name: "dec", Datatype: "char", UCD: "pos.eq.dec;meta.main", Description: "Declination (sexagesimal)"},
	{Name: "fits_link", Datatype: "char", UCD: "meta.ref.url", Description: "Download link for the FITS file"},
}
