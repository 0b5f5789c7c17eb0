package domain

import "time"

// Review is a single reviewer's rating of a movie. Reviews do not cascade
// with their movie in the database; the catalog removes them explicitly.
type Review struct {
	ID        int64
	MovieID   int64
	Headline  string
	Text      string
	Rating    int
	CreatedAt time.Time
}

// RatingAggregate is the derived rating of a movie. Average is 0 when Count is 0.
type RatingAggregate struct {
	Average float64
	Count   int64
}
