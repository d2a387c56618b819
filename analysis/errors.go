package analysis

import (
	"errors"

	"github.com/poiesic/skillscope/search"
)

var (
	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrEmptyQuery is returned when a query or role is blank.
	ErrEmptyQuery = search.ErrEmptyQuery

	// ErrInvalidOption is returned when an option value is out of range.
	ErrInvalidOption = errors.New("invalid analyzer option")
)
