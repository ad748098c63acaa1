package votable

import (
	"encoding/xml"
	"fmt"
	"io"
)

const (
	Version   = "1.4"
	Namespace = "http://www.ivoa.net/xml/VOTable/v1.3"
)

// Document is a VOTable with one resource holding one single-row table.
type Document struct {
	XMLName  xml.Name `xml:"VOTABLE"`
	Version  string   `xml:"version,attr"`
	Xmlns    string   `xml:"xmlns,attr"`
	Resource Resource `xml:"RESOURCE"`
}

type Resource struct {
	Name  string `xml:"name,attr,omitempty"`
	Table Table  `xml:"TABLE"`
}

type Table struct {
	Name   string         `xml:"name,attr"`
	Fields []FieldElement `xml:"FIELD"`
	Rows   []Row          `xml:"DATA>TABLEDATA>TR"`
}

type FieldElement struct {
	Name        string `xml:"name,attr"`
	Datatype    string `xml:"datatype,attr"`
	Arraysize   string `xml:"arraysize,attr,omitempty"`
	UCD         string `xml:"ucd,attr"`
	Unit        string `xml:"unit,attr,omitempty"`
	Description string `xml:"DESCRIPTION"`
}

type Row struct {
	Cells []string `xml:"TD"`
}

// NewDocument builds a document whose single row holds values, which must
// follow the order of Fields.
func NewDocument(resource string, values []string) (*Document, error) {
	if len(values) != len(Fields) {
		return nil, fmt.Errorf("votable: got %d values for %d fields", len(values), len(Fields))
	}

	elems := make([]FieldElement, 0, len(Fields))
	for _, f := range Fields {
		el := FieldElement{
			Name:        f.Name,
			Datatype:    f.Datatype,
			UCD:         f.UCD,
			Unit:        f.Unit,
			Description: f.Description,
		}
		if f.Datatype == "char" {
			el.Arraysize = "*"
		}
		elems = append(elems, el)
	}

	return &Document{
		Version: Version,
		Xmlns:   Namespace,
		Resource: Resource{
			Name: resource,
			Table: Table{
				Name:   "observation",
				Fields: elems,
				Rows:   []Row{{Cells: values}},
			},
		},
	}, nil
}

// Value returns the cell of the first row for the named field.
func (d *Document) Value(name string) (string, bool) {
	if len(d.Resource.Table.Rows) == 0 {
		return "", false
	}
	cells := d.Resource.Table.Rows[0].Cells
	for i, f := range d.Resource.Table.Fields {
		if f.Name == name && i < len(cells) {
			return cells[i], true
		}
	}
	return "", false
}

// Encode writes the XML declaration followed by the indented document.
func (d *Document) Encode(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(d); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
