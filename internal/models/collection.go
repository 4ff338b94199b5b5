package models

// CollectionCreate is the input for creating a collection.
type CollectionCreate struct {
	Name       string `json:"name"`
	VectorSize int    `json:"vector_size,omitempty"`
	Distance   string `json:"distance,omitempty"`
}

// Validate ensures the input has the required fields, applying defaultSize and
// defaultDistance when unset.
func (c *CollectionCreate) Validate(defaultSize int, defaultDistance string) error {
	if c.Name == "" {
		return &ValidationError{Field: "name", Reason: "name cannot be empty"}
	}
	if c.VectorSize < 0 {
		return &ValidationError{Field: "vector_size", Reason: "vector_size must be positive"}
	}
	if c.VectorSize == 0 {
		c.VectorSize = defaultSize
	}
	if c.Distance == "" {
		c.Distance = defaultDistance
	}
	return nil
}

// CollectionSummary is one entry in a collection listing.
type CollectionSummary struct {
	Name        string `json:"name"`
	PointsCount uint64 `json:"points_count"`
}

// CollectionDetail describes a single collection.
type CollectionDetail struct {
	Name        string `json:"name"`
	Dimension   uint64 `json:"dimension"`
	Distance    string `json:"distance"`
	PointsCount uint64 `json:"points_count"`
	Status      string `json:"status,omitempty"`
}
