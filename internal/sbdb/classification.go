// Package sbdb looks up the orbital classification of asteroids in the JPL
// Small-Body Database.
package sbdb

import (
	"context"
	"fmt"

	"github.com/tphakala/asteroid-catalog/internal/errors"
)

// UndefinedClass is the class recorded when no classification is known.
const UndefinedClass = "undefined"

// Classification is the orbital class and near-earth flag of an object.
type Classification struct {
	Class string
	NEO   bool
}

// Undefined is the classification used whenever a lookup fails.
var Undefined = Classification{Class: UndefinedClass}

// ErrLookup marks failed classification lookups.
var ErrLookup = errors.NewStd("classification lookup failed")

// Classifier returns the classification of an official designation.
type Classifier interface {
	Lookup(ctx context.Context, designation string) (Classification, error)
}

// newLookupError wraps ErrLookup with the designation and failure reason.
func newLookupError(designation, reason string, cause error) error {
	msg := fmt.Sprintf("%s: %s", designation, reason)
	var wrapped error
	if cause != nil {
		wrapped = fmt.Errorf("%w: %s: %w", ErrLookup, msg, cause)
	} else {
		wrapped = fmt.Errorf("%w: %s", ErrLookup, msg)
	}
	return errors.New(wrapped).
		Component("sbdb").
		Category(errors.CategoryLookup).
		Context("designation", designation).
		Context("reason", reason).
		Build()
}

