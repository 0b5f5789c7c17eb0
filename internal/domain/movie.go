package domain

import "time"

// Movie represents the canonical movie entity in the database/service.
// DateReleased is zero when the release date is unknown.
type Movie struct {
	ID           int64
	Isan         string
	Title        string
	DateReleased time.Time
}
