package model

// SourceRegion identifies which part of a page a candidate came from.
// Precedence between regions is owned by each field extractor, not here.
type SourceRegion string

const (
	RegionStructured SourceRegion = "structured-field"
	RegionTitle      SourceRegion = "title"
	RegionBody       SourceRegion = "body-text"
	RegionComments   SourceRegion = "comments"
)

// Candidate is a provisionally matched value found in text. Candidates are
// transient: created, validated, and discarded within one extractor call.
type Candidate struct {
	Value    int
	Raw      string
	Context  string
	Region   SourceRegion
	Position int
}
