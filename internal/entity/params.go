package entity

import "github.com/IgorChugurov/public-api-sdk/internal/model"

// Default page size when neither the caller nor the definition sets one.
const DefaultLimit = 20

// ListParams controls a paged listing.
type ListParams struct {
	Page  int
	Limit int

	// Search matches case-insensitively against the definition's
	// searchable fields.
	Search string

	// Filters maps field names to accepted values. Scalar fields
	// match against the data blob; relation fields match against
	// relation edges.
	Filters map[string][]string

	// FilterModes overrides how a relation filter in Filters combines
	// its values. The default for every relation field is ModeAny.
	FilterModes map[string]FilterMode

	SortBy    string
	SortOrder model.SortOrder

	// RelationsAsIDs returns relation values as id lists instead of
	// nested records.
	RelationsAsIDs bool
}

// FilterMode mirrors resolver.FilterMode for callers of this package.
type FilterMode string

const (
	FilterAny FilterMode = "any"
	FilterAll FilterMode = "all"
)

// GetOptions controls a single-record read.
type GetOptions struct {
	RelationsAsIDs bool
}

// CreateData is the payload for creating an instance. Data must carry
// a non-empty textual "name". Relations maps relation field names to
// target instance ids.
type CreateData struct {
	Data      map[string]any
	Relations map[string][]string
}

// UpdateData is the payload for updating an instance. Data keys are
// shallow-merged over the stored blob; Relations fully replace the
// edges of each named field.
type UpdateData struct {
	Data      map[string]any
	Relations map[string][]string
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page            int  `json:"page"`
	Limit           int  `json:"limit"`
	Total           int  `json:"total"`
	TotalPages      int  `json:"totalPages"`
	HasPreviousPage bool `json:"hasPreviousPage"`
	HasNextPage     bool `json:"hasNextPage"`
}

// ListResult is one page of flattened records plus paging metadata.
type ListResult struct {
	Data       []model.FlatRecord `json:"data"`
	Pagination Pagination         `json:"pagination"`
}
