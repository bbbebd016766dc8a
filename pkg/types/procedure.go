package types

// Procedure represents one stored procedure record in the embedding index.
// Records are immutable once added; the index is append-only and never
// deletes.
type Procedure struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Validate checks the fields every indexed procedure must carry.
// ID uniqueness is the caller's responsibility; the index does not enforce
// it.
func (p *Procedure) Validate() error {
	if p.ID == "" {
		return ErrMissingID
	}
	if p.Text == "" {
		return ErrEmptyDefinition
	}
	return nil
}

// RetrievalResult is one ranked search hit: the stored record plus its
// distance to the query embedding. Lower distance means more similar.
type RetrievalResult struct {
	Procedure
	Distance float64 `json:"distance"`
}

// FilterFunc decides whether a retrieval result survives post-search
// filtering.
type FilterFunc func(RetrievalResult) bool
