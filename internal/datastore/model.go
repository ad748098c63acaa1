package datastore

import "time"

// Default instrument recorded when a header names no camera.
const (
	UnknownInstrument          = "Unknown"
	DefaultInstrumentName      = "Alta U9000"
	DefaultInstrumentMaker     = "Apogee Imaging Systems"
	DefaultInstrumentMaxExpose = 60000.0
	DefaultInstrumentMinExpose = 1.0
	DefaultInstrumentPixelSize = "12 x 12 microns"
)

// Asteroid is a minor body identified by its provisional designation.
type Asteroid struct {
	ProvisionalName string     `gorm:"primaryKey;size:100" json:"provisionalName"`
	OfficialName    *string    `gorm:"uniqueIndex;size:100" json:"officialName,omitempty"`
	Status          string     `gorm:"size:20;not null;default:pending" json:"status"`
	TargetClass     string     `gorm:"size:50;not null;default:undefined;index" json:"targetClass"`
	IsNEO           bool       `gorm:"not null;default:false" json:"isNeo"`
	Description     string     `gorm:"type:text" json:"description,omitempty"`
	DiscoveryDate   *time.Time `gorm:"index" json:"discoveryDate,omitempty"`

	Observations []Observation `gorm:"foreignKey:AsteroidName;references:ProvisionalName;constraint:OnDelete:CASCADE" json:"observations,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Instrument is a camera referenced by observations. Rows are never updated.
type Instrument struct {
	Name            string    `gorm:"primaryKey;size:100" json:"name"`
	Manufacturer    string    `gorm:"size:100" json:"manufacturer,omitempty"`
	MaxExposureTime float64   `json:"maxExposureTime"`
	MinExposureTime float64   `json:"minExposureTime"`
	PixelSize       string    `gorm:"size:50" json:"pixelSize,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Observation is one FITS frame of an asteroid. (AsteroidName, DateObs) is unique.
type Observation struct {
	ID             uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	AsteroidName   string      `gorm:"size:100;not null;uniqueIndex:idx_asteroid_date,priority:1" json:"asteroid"`
	DateObs        time.Time   `gorm:"not null;uniqueIndex:idx_asteroid_date,priority:2" json:"dateObs"`
	InstrumentName *string     `gorm:"size:100" json:"instrument,omitempty"`
	Instrument     *Instrument `gorm:"foreignKey:InstrumentName;references:Name;constraint:OnDelete:SET NULL" json:"-"`
	ExpTime        float64     `json:"exptime"`
	Exposure       float64     `json:"exposure"`
	RA             string      `gorm:"size:32" json:"ra"`
	Dec            string      `gorm:"size:32" json:"dec"`
	RADeg          *float64    `json:"raDeg,omitempty"`
	DecDeg         *float64    `json:"decDeg,omitempty"`
	NAxis1         int         `json:"naxis1"`
	NAxis2         int         `json:"naxis2"`
	Temperature    *float64    `json:"temperature,omitempty"`
	Filename       string      `gorm:"size:255;index" json:"filename"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// Result is the outcome of a get-or-create call.
type Result[T any] struct {
	Entity  *T
	Created bool
}

// CatalogQuery filters and orders asteroid listings.
type CatalogQuery struct {
	Query         string // matched against names, description, class and status
	TargetClass   string
	SortDiscovery string // "asc", "desc" or "" for name order
	Limit         int
	Offset        int
}

// normalizeInstrument maps missing names to the default instrument. The
// default instrument always carries its full attributes, whichever name
// first created it.
func normalizeInstrument(name string) Instrument {
	switch name {
	case "", UnknownInstrument, DefaultInstrumentName:
		return Instrument{
			Name:            DefaultInstrumentName,
			Manufacturer:    DefaultInstrumentMaker,
			MaxExposureTime: DefaultInstrumentMaxExpose,
			MinExposureTime: DefaultInstrumentMinExpose,
			PixelSize:       DefaultInstrumentPixelSize,
		}
	default:
		return Instrument{Name: name}
	}
}
