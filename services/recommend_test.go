package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"coco-admissions-platform/internal/vectorstore"
)

func TestBuildProgramFilterEmpty(t *testing.T) {
	where, err := BuildProgramFilter(Filters{}, time.Now())
	if err != nil {
		t.Fatalf("BuildProgramFilter: %v", err)
	}
	if where != nil {
		t.Errorf("no filters should build no constraint, got %#v", where)
	}
	if !where.Matches(vectorstore.Metadata{"anything": "x"}) {
		t.Error("empty predicate should match everything")
	}
}

func TestBuildProgramFilterSingleGroupUnwrapped(t *testing.T) {
	where, err := BuildProgramFilter(Filters{"city": "Boston"}, time.Now())
	if err != nil {
		t.Fatalf("BuildProgramFilter: %v", err)
	}
	if _, wrapped := where["$and"]; wrapped {
		t.Errorf("single group should not be wrapped in $and: %#v", where)
	}
	if !where.Matches(vectorstore.Metadata{"city": "Boston"}) {
		t.Error("matching city rejected")
	}
	if where.Matches(vectorstore.Metadata{"city": "Toronto"}) {
		t.Error("non-matching city accepted")
	}
}

func TestBuildProgramFilterMultipleGroupsAnded(t *testing.T) {
	where, err := BuildProgramFilter(Filters{"city": "Boston", "CGPA": "3.0"}, time.Now())
	if err != nil {
		t.Fatalf("BuildProgramFilter: %v", err)
	}
	if _, wrapped := where["$and"]; !wrapped {
		t.Fatalf("two groups should be $and-wrapped: %#v", where)
	}
	if !where.Matches(vectorstore.Metadata{"city": "Boston", "CGPA": 2.8}) {
		t.Error("record satisfying both groups rejected")
	}
	if where.Matches(vectorstore.Metadata{"city": "Boston", "CGPA": 3.5}) {
		t.Error("record above the CGPA threshold accepted")
	}
}

// A range filter admits programs whose requirement is at or below the
// student's score, plus programs with no stated requirement at all.
func TestBuildProgramFilterRangeInclusivity(t *testing.T) {
	where, err := BuildProgramFilter(Filters{"CGPA": "3.0"}, time.Now())
	if err != nil {
		t.Fatalf("BuildProgramFilter: %v", err)
	}

	if !where.Matches(vectorstore.Metadata{"CGPA": 2.8}) {
		t.Error("requirement below the score should pass")
	}
	if !where.Matches(vectorstore.Metadata{"CGPA": 3.0}) {
		t.Error("requirement equal to the score should pass")
	}
	if !where.Matches(vectorstore.Metadata{"CGPA": ""}) {
		t.Error("unset requirement should pass")
	}
	if where.Matches(vectorstore.Metadata{"CGPA": 3.5}) {
		t.Error("requirement above the score should fail")
	}
}

func TestBuildProgramFilterDeadline(t *testing.T) {
	where, err := BuildProgramFilter(Filters{"application_end_date": "2026-09-01"}, time.Now())
	if err != nil {
		t.Fatalf("BuildProgramFilter: %v", err)
	}

	cutoff := time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local).Unix()
	if !where.Matches(vectorstore.Metadata{"application_end_date": cutoff + 86400}) {
		t.Error("deadline after the cutoff should pass")
	}
	if where.Matches(vectorstore.Metadata{"application_end_date": cutoff - 86400}) {
		t.Error("deadline before the cutoff should fail")
	}
	if !where.Matches(vectorstore.Metadata{"application_end_date": ""}) {
		t.Error("programs with no deadline should pass")
	}
}

func TestBuildProgramFilterInvalidValues(t *testing.T) {
	if _, err := BuildProgramFilter(Filters{"CGPA": "three"}, time.Now()); err == nil {
		t.Error("non-numeric range value should be rejected")
	}
	if _, err := BuildProgramFilter(Filters{"application_end_date": "soon"}, time.Now()); err == nil {
		t.Error("non-date deadline should be rejected")
	}
}

func TestBuildResearcherFilterListValues(t *testing.T) {
	where, err := BuildResearcherFilter(Filters{"city": []string{"Boston", "Toronto"}})
	if err != nil {
		t.Fatalf("BuildResearcherFilter: %v", err)
	}

	if !where.Matches(vectorstore.Metadata{"city": "Boston"}) {
		t.Error("first listed city rejected")
	}
	if !where.Matches(vectorstore.Metadata{"city": "Toronto"}) {
		t.Error("second listed city rejected")
	}
	if where.Matches(vectorstore.Metadata{"city": "Berlin"}) {
		t.Error("unlisted city accepted")
	}
}

func TestBuildResearcherFilterIgnoresRangeFields(t *testing.T) {
	where, err := BuildResearcherFilter(Filters{"CGPA": "3.0", "funding_available": "True"})
	if err != nil {
		t.Fatalf("BuildResearcherFilter: %v", err)
	}
	// Only the equality field applies to researchers.
	if !where.Matches(vectorstore.Metadata{"funding_available": "True"}) {
		t.Errorf("researcher filter should ignore CGPA: %#v", where)
	}
}

func newTestRecommender(t *testing.T) (*Recommender, *vectorstore.Store) {
	t.Helper()
	store, err := vectorstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return NewRecommender(store, nil, nil, 10), store
}

func seedStudent(t *testing.T, store *vectorstore.Store, id string, embedding []float32, document string) {
	t.Helper()
	col, err := store.GetOrCreateCollection(StudentUserCollection)
	if err != nil {
		t.Fatalf("student collection: %v", err)
	}
	if err := col.Add(vectorstore.Record{ID: id, Document: document, Embedding: embedding}); err != nil {
		t.Fatalf("seed student: %v", err)
	}
}

func TestRecommendProgramsFiltersAndShapes(t *testing.T) {
	rec, store := newTestRecommender(t)
	seedStudent(t, store, "1", []float32{1, 0}, "Resume: xStatement of purpose: y")

	programs, _ := store.GetOrCreateCollection(ProgramCollection)
	programs.Add(vectorstore.Record{
		ID:        "program_7",
		Embedding: []float32{1, 0},
		Metadata: vectorstore.Metadata{
			"program_title":        "MSc Computer Science",
			"CGPA":                 2.8,
			"city":                 "Boston",
			"application_end_date": int64(1793484000),
		},
	})
	programs.Add(vectorstore.Record{
		ID:        "program_8",
		Embedding: []float32{0.9, 0.1},
		Metadata:  vectorstore.Metadata{"program_title": "MBA", "CGPA": 3.5, "city": "Boston"},
	})
	programs.Add(vectorstore.Record{
		ID:        "program_9",
		Embedding: []float32{0.8, 0.2},
		Metadata:  vectorstore.Metadata{"program_title": "MFA", "CGPA": "", "city": "Boston"},
	})

	document, results, err := rec.RecommendPrograms(context.Background(), 1, Filters{"CGPA": "3.0"})
	if err != nil {
		t.Fatalf("RecommendPrograms: %v", err)
	}
	if document == "" {
		t.Error("stored user document should be returned")
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2 (CGPA 3.5 program excluded)", len(results))
	}
	if results[0].ID != "program_7" {
		t.Errorf("nearest hit = %s, want program_7", results[0].ID)
	}

	fields := results[0].Fields
	if fields["program_title"] != "MSc Computer Science" {
		t.Errorf("program_title = %#v", fields["program_title"])
	}
	if fields["application_end_date"] == "" {
		t.Error("stored deadline should render as a date")
	}
	// Metadata the record never carried defaults to explicit empty strings.
	if fields["IELTS"] != "" || fields["organization_name"] != "" {
		t.Errorf("absent fields should default to \"\": %#v", fields)
	}

	// The unset-requirement program came through the empty branch.
	if results[1].ID != "program_9" {
		t.Errorf("second hit = %s, want program_9", results[1].ID)
	}
	if results[1].Fields["application_end_date"] != "" {
		t.Errorf("program with no deadline should render \"\", got %#v",
			results[1].Fields["application_end_date"])
	}
}

func TestRecommendProgramsNoEmbedding(t *testing.T) {
	rec, _ := newTestRecommender(t)
	_, _, err := rec.RecommendPrograms(context.Background(), 99, Filters{})
	if !errors.Is(err, ErrRecommendationUnavailable) {
		t.Errorf("err = %v, want ErrRecommendationUnavailable", err)
	}
}

func TestRecommendResearchers(t *testing.T) {
	rec, store := newTestRecommender(t)
	seedStudent(t, store, "1", []float32{1, 0}, "doc")

	researchers, _ := store.GetOrCreateCollection(ResearcherUserCollection)
	researchers.Add(vectorstore.Record{
		ID:        "42",
		Embedding: []float32{1, 0},
		Metadata: vectorstore.Metadata{
			"name":              "Grace Hopper",
			"type":              "Professor",
			"funding_available": "True",
			"funding_type":      "Fellowship|Grant",
		},
	})
	researchers.Add(vectorstore.Record{
		ID:        "43",
		Embedding: []float32{1, 0},
		Metadata:  vectorstore.Metadata{"name": "No Funding", "funding_available": "False"},
	})

	_, results, err := rec.RecommendResearchers(context.Background(), 1, Filters{"funding_available": "True"})
	if err != nil {
		t.Fatalf("RecommendResearchers: %v", err)
	}
	if len(results) != 1 || results[0].ID != "42" {
		t.Fatalf("results = %+v, want only researcher 42", results)
	}
	fields := results[0].Fields
	if fields["name"] != "Grace Hopper" || fields["funding_type"] != "Fellowship|Grant" {
		t.Errorf("fields = %#v", fields)
	}
	if fields["city"] != "" {
		t.Errorf("absent city should default to \"\", got %#v", fields["city"])
	}
}
