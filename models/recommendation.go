package models

// Score is a numeric admission threshold that may be absent. Absent is
// distinct from zero: an unset requirement serializes to "" in vector
// metadata so range filters can treat "no stated requirement" as a pass.
type Score struct {
	Value float64
	Set   bool
}

func NewScore(v float64) Score {
	return Score{Value: v, Set: true}
}

// MetaValue returns the vector-metadata representation: the number when set,
// the empty-string sentinel otherwise.
func (s Score) MetaValue() any {
	if s.Set {
		return s.Value
	}
	return ""
}

// EligibilityCriteria holds the structured admission thresholds parsed out of
// a program's free-text eligibility description.
type EligibilityCriteria struct {
	IELTS    Score
	TOEFL    Score
	DUOLINGO Score
	GRE      Score
	CGPA     Score
}

// FundingSummary is parallel arrays scanned out of a flat record's
// funding_* keys. Index i across all arrays describes one funding entity.
type FundingSummary struct {
	FundingID             []int
	FundingFor            []string
	FundingType           []string
	FundingOpportunityFor []string
	TitleOfFunding        []string
	Description           []string
}

// Available reports whether at least one funding entity was found.
func (f *FundingSummary) Available() bool {
	return len(f.FundingID) > 0
}

// RecommendationResult is one ranked entry returned by the query engine.
// Fields mirrors the vector metadata of the matched record with absent keys
// defaulted to explicit empty values; Distance is the store's cosine
// distance (ascending = more similar).
type RecommendationResult struct {
	ID       string         `json:"id"`
	Fields   map[string]any `json:"fields"`
	Distance float64        `json:"distance"`
}

// IngestReport summarizes one collection rebuild.
type IngestReport struct {
	Collection string `json:"collection"`
	Written    int    `json:"written"`
	Skipped    int    `json:"skipped"`
}
