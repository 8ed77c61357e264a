package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"coco-admissions-platform/models"
)

func TestExtractCriteria(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.EligibilityCriteria
	}{
		{
			name: "all scores present",
			text: "Applicants need IELTS 6.5 or TOEFL 90, DUOLINGO 110, GRE 310 and a CGPA 3.0 minimum.",
			want: models.EligibilityCriteria{
				IELTS:    models.NewScore(6.5),
				TOEFL:    models.NewScore(90),
				DUOLINGO: models.NewScore(110),
				GRE:      models.NewScore(310),
				CGPA:     models.NewScore(3.0),
			},
		},
		{
			name: "case insensitive",
			text: "ielts 7 required",
			want: models.EligibilityCriteria{IELTS: models.NewScore(7)},
		},
		{
			name: "decimal cgpa",
			text: "CGPA 3.75 or higher",
			want: models.EligibilityCriteria{CGPA: models.NewScore(3.75)},
		},
		{
			name: "nothing parseable",
			text: "Strong academic record expected.",
			want: models.EligibilityCriteria{},
		},
		{
			name: "empty text",
			text: "",
			want: models.EligibilityCriteria{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractCriteria(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractCriteria() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

type fakeCriteriaLLM struct {
	criteria models.EligibilityCriteria
	err      error
	calls    int
}

func (f *fakeCriteriaLLM) Extract(_ context.Context, _ string) (models.EligibilityCriteria, error) {
	f.calls++
	return f.criteria, f.err
}

func TestCriteriaRegexFirst(t *testing.T) {
	llm := &fakeCriteriaLLM{criteria: models.EligibilityCriteria{GRE: models.NewScore(320)}}
	m := NewMetadataExtractor(llm)

	got := m.Criteria(context.Background(), "IELTS 6.0 required")
	if !got.IELTS.Set || got.IELTS.Value != 6.0 {
		t.Errorf("regex result lost: %+v", got)
	}
	if llm.calls != 0 {
		t.Errorf("LLM called %d times despite regex hit", llm.calls)
	}
}

func TestCriteriaLLMFallback(t *testing.T) {
	llm := &fakeCriteriaLLM{criteria: models.EligibilityCriteria{TOEFL: models.NewScore(95)}}
	m := NewMetadataExtractor(llm)

	got := m.Criteria(context.Background(), "English proficiency comparable to upper intermediate.")
	if llm.calls != 1 {
		t.Fatalf("LLM calls = %d, want 1", llm.calls)
	}
	if !got.TOEFL.Set || got.TOEFL.Value != 95 {
		t.Errorf("fallback result = %+v", got)
	}
}

func TestCriteriaLLMFailureDegrades(t *testing.T) {
	llm := &fakeCriteriaLLM{err: errors.New("rate limited")}
	m := NewMetadataExtractor(llm)

	got := m.Criteria(context.Background(), "holistic review only")
	if got != (models.EligibilityCriteria{}) {
		t.Errorf("failed LLM call should leave empty criteria, got %+v", got)
	}
}

func TestCriteriaBlankTextSkipsLLM(t *testing.T) {
	llm := &fakeCriteriaLLM{}
	m := NewMetadataExtractor(llm)

	m.Criteria(context.Background(), "   ")
	if llm.calls != 0 {
		t.Errorf("blank text should not reach the LLM")
	}
}

func TestExtractFundingData(t *testing.T) {
	flat := FlatRecord{
		"funding_12_id":                      12,
		"funding_12_funding_for":             "PhD",
		"funding_12_funding_type":            "Fellowship",
		"funding_12_funding_opportunity_for": "International",
		"funding_12_title_of_funding":        "Dean's Fellowship",
		"funding_12_description":             "Covers tuition and stipend",
		"funding_3_id":                       3,
		"funding_3_funding_for":              "Masters",
		"funding_3_funding_type":             "Grant",
		"funding_3_funding_opportunity_for":  "Domestic",
		"funding_3_title_of_funding":         "Travel Grant",
		"funding_3_description":              "Conference travel",
		"program_7_title":                    "not a funding key",
	}

	got := ExtractFundingData(flat)

	// Keys scan in sorted order, so funding 12 sorts before funding 3 and
	// the parallel arrays stay index-aligned.
	if want := []int{12, 3}; !reflect.DeepEqual(got.FundingID, want) {
		t.Errorf("FundingID = %v, want %v", got.FundingID, want)
	}
	if want := []string{"PhD", "Masters"}; !reflect.DeepEqual(got.FundingFor, want) {
		t.Errorf("FundingFor = %v, want %v", got.FundingFor, want)
	}
	if want := []string{"Fellowship", "Grant"}; !reflect.DeepEqual(got.FundingType, want) {
		t.Errorf("FundingType = %v, want %v", got.FundingType, want)
	}
	if want := []string{"International", "Domestic"}; !reflect.DeepEqual(got.FundingOpportunityFor, want) {
		t.Errorf("FundingOpportunityFor = %v, want %v", got.FundingOpportunityFor, want)
	}
	if want := []string{"Dean's Fellowship", "Travel Grant"}; !reflect.DeepEqual(got.TitleOfFunding, want) {
		t.Errorf("TitleOfFunding = %v, want %v", got.TitleOfFunding, want)
	}
	if want := []string{"Covers tuition and stipend", "Conference travel"}; !reflect.DeepEqual(got.Description, want) {
		t.Errorf("Description = %v, want %v", got.Description, want)
	}
	if !got.Available() {
		t.Error("Available() = false with two fundings")
	}
}

func TestExtractFundingDataEmpty(t *testing.T) {
	got := ExtractFundingData(FlatRecord{"user_id": 1})
	if got.Available() {
		t.Error("no funding keys should mean not available")
	}
	if got.FundingID == nil || got.Description == nil {
		t.Error("arrays should be empty, not nil")
	}
}

func TestMetadataFiltering(t *testing.T) {
	flat := FlatRecord{
		"user_id":                7,
		"first_name":             "Ada",
		"created_at":             "2024-01-01",
		"profile_deleted_at":     nil,
		"sop":                    "ref",
		"resume":                 "ref",
		"groups":                 "Student",
		"custom_groups":          "x",
		"date_joined":            "2023-09-01",
		"publication_0_title":    "Paper",
		"publication_0_abstract": "Abstract",
		"current_state_province": nil,
	}

	got := MetadataFiltering(flat)

	for _, gone := range []string{
		"created_at", "profile_deleted_at", "sop", "resume", "groups",
		"custom_groups", "date_joined", "publication_0_title", "publication_0_abstract",
	} {
		if _, ok := got[gone]; ok {
			t.Errorf("key %q should have been filtered out", gone)
		}
	}
	if got["user_id"] != 7 || got["first_name"] != "Ada" {
		t.Errorf("profile fields lost: %#v", got)
	}
	if got["current_state_province"] != "None" {
		t.Errorf("nil should become \"None\", got %#v", got["current_state_province"])
	}
}

func TestProgramMetadata(t *testing.T) {
	m := NewMetadataExtractor(nil)
	flat := FlatRecord{
		"program_7_id":                   7,
		"program_7_title":                "MSc Computer Science",
		"program_7_description":          "<p>Systems and <b>theory</b></p>",
		"program_7_eligibility_criteria": "<p>IELTS 6.5 and CGPA 3.0</p>",
		"program_7_application_process":  "Online portal",
		"program_7_application_fee":      75.0,
		"program_7_application_end_date": "2026-12-01",
		"department_9_id":                9,
		"department_9_name":              "Computer Science",
		"college_5_id":                   5,
		"college_5_name":                 "Engineering",
		"campus_2_id":                    2,
		"campus_2_name":                  "Main Campus",
		"organization_1_id":              1,
		"organization_1_name":            "State University",
		"campus_2_address_city":          "Boston",
		"campus_2_address_country_name":  "USA",
	}

	meta := m.ProgramMetadata(context.Background(), flat)

	if meta["program_id"] != 7 || meta["program_title"] != "MSc Computer Science" {
		t.Errorf("program identity: %#v", meta)
	}
	if meta["IELTS"] != 6.5 || meta["CGPA"] != 3.0 {
		t.Errorf("criteria: IELTS=%#v CGPA=%#v", meta["IELTS"], meta["CGPA"])
	}
	if meta["TOEFL"] != "" || meta["GRE"] != "" || meta["DUOLINGO"] != "" {
		t.Errorf("unset scores should be empty sentinels: %#v", meta)
	}
	if meta["application_fee"] != 75.0 {
		t.Errorf("application_fee = %#v", meta["application_fee"])
	}
	if _, ok := meta["application_end_date"].(int64); !ok {
		t.Errorf("application_end_date should be a unix timestamp, got %#v", meta["application_end_date"])
	}
	if meta["department_name"] != "Computer Science" || meta["college_name"] != "Engineering" {
		t.Errorf("affiliation names: %#v", meta)
	}
	if meta["organization_name"] != "State University" || meta["campus_name"] != "Main Campus" {
		t.Errorf("org/campus names: %#v", meta)
	}
	if meta["city"] != "Boston" || meta["country_name"] != "USA" {
		t.Errorf("location: %#v", meta)
	}
}

func TestProgramMetadataUnparsableDeadline(t *testing.T) {
	m := NewMetadataExtractor(nil)
	meta := m.ProgramMetadata(context.Background(), FlatRecord{
		"program_7_id":                   7,
		"program_7_application_end_date": "next spring",
	})
	if meta["application_end_date"] != "" {
		t.Errorf("unparsable deadline should be the empty sentinel, got %#v", meta["application_end_date"])
	}
}

func TestCollegeMetadata(t *testing.T) {
	m := NewMetadataExtractor(nil)
	flat := FlatRecord{
		"college_5_id":        5,
		"college_5_name":      "Engineering",
		"college_5_statement": "We build things.",
		"organization_1_id":   1,
		"organization_1_name": "State University",
	}

	meta := m.CollegeMetadata(flat)
	if meta["college_id"] != 5 || meta["college_name"] != "Engineering" {
		t.Errorf("college identity: %#v", meta)
	}
	if meta["statement"] != "We build things." {
		t.Errorf("statement = %#v", meta["statement"])
	}
	if meta["organization_name"] != "State University" {
		t.Errorf("organization_name = %#v", meta["organization_name"])
	}
	if meta["campus_name"] != nil {
		t.Errorf("absent campus should add no campus keys, got %#v", meta["campus_name"])
	}
}
