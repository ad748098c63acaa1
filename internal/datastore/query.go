package datastore

import (
	"context"
	"strings"
	"time"
)

// likeEscape is the escape character used in LIKE patterns.
const likeEscape = "!"

// GetAsteroid returns the asteroid whose provisional or official name is name.
func (ds *DataStore) GetAsteroid(ctx context.Context, name string) (_ *Asteroid, err error) {
	defer ds.observe("get_asteroid", time.Now(), &err)
	if err := ds.ready(); err != nil {
		return nil, err
	}

	var a Asteroid
	err = ds.DB.WithContext(ctx).
		Where("provisional_name = ? OR official_name = ?", name, name).
		First(&a).Error
	if err != nil {
		return nil, queryError(err, "get_asteroid", "asteroid", name)
	}
	return &a, nil
}

// GetObservation returns the observation with the given id.
func (ds *DataStore) GetObservation(ctx context.Context, id uint) (_ *Observation, err error) {
	defer ds.observe("get_observation", time.Now(), &err)
	if err := ds.ready(); err != nil {
		return nil, err
	}

	var o Observation
	if err = ds.DB.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, queryError(err, "get_observation", "observation", id)
	}
	return &o, nil
}

// ListObservations returns the observations of an asteroid, oldest first.
func (ds *DataStore) ListObservations(ctx context.Context, asteroid string) (_ []Observation, err error) {
	defer ds.observe("list_observations", time.Now(), &err)
	if err := ds.ready(); err != nil {
		return nil, err
	}

	var obs []Observation
	err = ds.DB.WithContext(ctx).
		Where("asteroid_name = ?", asteroid).
		Order("date_obs ASC").
		Find(&obs).Error
	if err != nil {
		return nil, dbError(err, "list_observations", "", "asteroid", asteroid)
	}
	return obs, nil
}

// SearchAsteroids lists asteroids matching q. The free-text query matches
// case-insensitively against names, description, class and status.
func (ds *DataStore) SearchAsteroids(ctx context.Context, q CatalogQuery) (_ []Asteroid, err error) {
	defer ds.observe("search_asteroids", time.Now(), &err)
	if err := ds.ready(); err != nil {
		return nil, err
	}

	db := ds.DB.WithContext(ctx).Model(&Asteroid{})

	if text := strings.TrimSpace(q.Query); text != "" {
		pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
		db = db.Where(
			"(LOWER(provisional_name) LIKE ? ESCAPE '!'"+
				" OR LOWER(COALESCE(official_name, '')) LIKE ? ESCAPE '!'"+
				" OR LOWER(description) LIKE ? ESCAPE '!'"+
				" OR LOWER(target_class) LIKE ? ESCAPE '!'"+
				" OR LOWER(status) LIKE ? ESCAPE '!')",
			pattern, pattern, pattern, pattern, pattern)
	}
	if class := strings.TrimSpace(q.TargetClass); class != "" {
		db = db.Where("target_class = ?", class)
	}

	switch strings.ToLower(q.SortDiscovery) {
	case "":
		db = db.Order("provisional_name ASC")
	case "asc":
		db = db.Order("discovery_date ASC").Order("provisional_name ASC")
	case "desc":
		db = db.Order("discovery_date DESC").Order("provisional_name ASC")
	default:
		return nil, validationError("sort must be asc or desc", "sort", q.SortDiscovery)
	}

	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}

	var asteroids []Asteroid
	if err = db.Find(&asteroids).Error; err != nil {
		return nil, dbError(err, "search_asteroids", "", "query", q.Query)
	}
	return asteroids, nil
}

// TargetClasses returns the distinct classification labels in use.
func (ds *DataStore) TargetClasses(ctx context.Context) (_ []string, err error) {
	defer ds.observe("target_classes", time.Now(), &err)
	if err := ds.ready(); err != nil {
		return nil, err
	}

	var classes []string
	err = ds.DB.WithContext(ctx).
		Model(&Asteroid{}).
		Distinct("target_class").
		Order("target_class ASC").
		Pluck("target_class", &classes).Error
	if err != nil {
		return nil, dbError(err, "target_classes", "")
	}
	return classes, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(
		likeEscape, likeEscape+likeEscape,
		"%", likeEscape+"%",
		"_", likeEscape+"_",
	).Replace(s)
}
