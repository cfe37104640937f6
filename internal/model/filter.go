package model

// SortOrder constrains the direction of a sorted listing.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// IsValid returns true if o is a recognized sort order.
func (o SortOrder) IsValid() bool {
	return o == SortAsc || o == SortDesc
}

// InstanceFilter narrows an instance listing. Zero fields are ignored.
type InstanceFilter struct {
	DefinitionID string
	ProjectID    string

	// IDs restricts results to the given instance ids when non-nil.
	IDs []string

	// Data matches instances whose data blob holds one of the listed
	// values for each named field.
	Data map[string][]string

	// Search matches the query case-insensitively against the named
	// data fields.
	Search       string
	SearchFields []string

	SortBy    string
	SortOrder SortOrder

	Limit  int
	Offset int
}
