package datastore

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/tphakala/asteroid-catalog/internal/errors"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.NewStd("record not found")

	// ErrConflict is returned when an insert collides with a different row
	// on a secondary unique key.
	ErrConflict = errors.NewStd("conflicting record")

	errNotInitialized = errors.NewStd("database connection is not initialized")
)

// dbError creates a categorized database error with context pairs.
func dbError(err error, operation, priority string, context ...any) error {
	builder := errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation)

	if priority != "" {
		builder = builder.Priority(priority)
	}
	for i := 0; i+1 < len(context); i += 2 {
		if key, ok := context[i].(string); ok {
			builder = builder.Context(key, context[i+1])
		}
	}
	return builder.Build()
}

// notFoundError wraps ErrNotFound for the given entity and key.
func notFoundError(entity string, key any) error {
	return errors.New(fmt.Errorf("%w: %s %v", ErrNotFound, entity, key)).
		Component("datastore").
		Category(errors.CategoryNotFound).
		Context("entity", entity).
		Context("key", fmt.Sprintf("%v", key)).
		Build()
}

// conflictError wraps ErrConflict.
func conflictError(entity string, key any) error {
	return errors.New(fmt.Errorf("%w: %s %v", ErrConflict, entity, key)).
		Component("datastore").
		Category(errors.CategoryConflict).
		Context("entity", entity).
		Context("key", fmt.Sprintf("%v", key)).
		Build()
}

// queryError maps gorm.ErrRecordNotFound to a not-found error.
func queryError(err error, operation, entity string, key any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundError(entity, key)
	}
	return dbError(err, operation, "", "entity", entity)
}

// IsNotFound reports whether err means the entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
