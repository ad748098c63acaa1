// Package designation reconciles provisional asteroid designations with the
// official names assigned by the Minor Planet Center.
package designation

import (
	"sync"

	"github.com/spf13/afero"

	"github.com/tphakala/asteroid-catalog/internal/logger"
)

// Status is the confirmation state of an asteroid designation.
type Status string

const (
	StatusPending      Status = "pending"
	StatusConfirmed    Status = "confirmed"
	StatusNotConfirmed Status = "not_confirmed"
)

// Mapping maps provisional designations to official names.
type Mapping map[string]string

// Pair is one provisional/official association.
type Pair struct {
	Provisional string
	Official    string
}

// Resolve looks up provisional in m. A hit yields the official name and
// StatusConfirmed, a miss yields StatusNotConfirmed.
func Resolve(provisional string, m Mapping) (official string, ok bool, status Status) {
	if official, ok = m[provisional]; ok && official != "" {
		return official, true, StatusConfirmed
	}
	return "", false, StatusNotConfirmed
}

// Resolver lazily loads a mapping file once and answers lookups against it.
// A missing or unreadable file turns every lookup into a miss.
type Resolver struct {
	fs   afero.Fs
	path string
	log  logger.Logger

	once    sync.Once
	mapping Mapping
}

// NewResolver returns a resolver for the mapping CSV at path.
func NewResolver(fs afero.Fs, path string, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.Global().Module("designation")
	}
	return &Resolver{fs: fs, path: path, log: log}
}

// NewStaticResolver wraps an in-memory mapping.
func NewStaticResolver(m Mapping) *Resolver {
	r := &Resolver{mapping: m}
	r.once.Do(func() {})
	return r
}

// Resolve returns the official name of provisional, if known.
func (r *Resolver) Resolve(provisional string) (official string, ok bool, status Status) {
	r.once.Do(r.load)
	return Resolve(provisional, r.mapping)
}

// Len returns the number of loaded mappings.
func (r *Resolver) Len() int {
	r.once.Do(r.load)
	return len(r.mapping)
}

func (r *Resolver) load() {
	m, err := LoadMapping(r.fs, r.path, r.log)
	if err != nil {
		r.log.Warn("designation mapping unavailable, all designations will be unconfirmed",
			logger.String("path", r.path),
			logger.Error(err))
		r.mapping = Mapping{}
		return
	}
	r.mapping = m
	r.log.Debug("designation mapping loaded",
		logger.String("path", r.path),
		logger.Int("entries", len(m)))
}
