package catalog

import "github.com/Clark-Hu/movie-catalog/internal/domain"

// Kind names the result of a catalog operation. Callers switch on Kind to
// choose a response; they never need to inspect Message or Err for that.
type Kind string

const (
	KindValid               Kind = "valid"
	KindCreated             Kind = "created"
	KindUpdated             Kind = "updated"
	KindDeleted             Kind = "deleted"
	KindRated               Kind = "rated"
	KindMalformedInput      Kind = "malformed_input"
	KindDuplicateIdentifier Kind = "duplicate_identifier"
	KindUnknownDirector     Kind = "unknown_director"
	KindUnknownCategory     Kind = "unknown_category"
	KindIdentifierMismatch  Kind = "identifier_mismatch"
	KindNotFound            Kind = "not_found"
	KindPersistenceFailed   Kind = "persistence_failed"
)

// OK reports whether k is one of the success kinds.
func (k Kind) OK() bool {
	switch k {
	case KindValid, KindCreated, KindUpdated, KindDeleted, KindRated:
		return true
	}
	return false
}

// Outcome is the tagged result of a validation, write, delete or rating call.
type Outcome struct {
	Kind    Kind
	Message string
	// Movie is populated for Created, Updated and Deleted.
	Movie domain.Movie
	// Rating is populated for Rated.
	Rating domain.RatingAggregate
	// Err carries the store error behind PersistenceFailed.
	Err error
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Kind.OK()
}

func fail(kind Kind, message string) Outcome {
	return Outcome{Kind: kind, Message: message}
}

func persistenceFailed(err error) Outcome {
	return Outcome{Kind: KindPersistenceFailed, Message: "Something went wrong, please try again", Err: err}
}
