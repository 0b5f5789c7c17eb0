package domain

// Director is referenced by movies through movie_directors.
type Director struct {
	ID        int64
	FirstName string
	LastName  string
	Country   string
}

// Category groups movies (drama, comedy, ...).
type Category struct {
	ID   int64
	Name string
}
