package sbdb

import (
	"io"

	"github.com/antonholmquist/jason"
)

// parseResponse extracts object.orbit_class.name and object.neo from an SBDB
// API response. A response without an object (not found, or a list of
// ambiguous matches) is an error.
func parseResponse(designation string, r io.Reader) (Classification, error) {
	root, err := jason.NewObjectFromReader(r)
	if err != nil {
		return Undefined, newLookupError(designation, "malformed response", err)
	}

	object, err := root.GetObject("object")
	if err != nil {
		if _, listErr := root.GetObjectArray("list"); listErr == nil {
			return Undefined, newLookupError(designation, "ambiguous designation", nil)
		}
		if msg, msgErr := root.GetString("message"); msgErr == nil {
			return Undefined, newLookupError(designation, msg, nil)
		}
		return Undefined, newLookupError(designation, "response has no object", err)
	}

	class, err := object.GetString("orbit_class", "name")
	if err != nil || class == "" {
		return Undefined, newLookupError(designation, "response has no orbit class", err)
	}

	neo, err := object.GetBoolean("neo")
	if err != nil {
		neo = false
	}

	return Classification{Class: class, NEO: neo}, nil
}
