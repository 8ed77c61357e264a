package services

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"coco-admissions-platform/internal/logger"
	"coco-admissions-platform/models"
	"coco-admissions-platform/utils"
)

// CriteriaLLM is the structured-extraction fallback for eligibility prose the
// regex pass cannot parse.
type CriteriaLLM interface {
	Extract(ctx context.Context, text string) (models.EligibilityCriteria, error)
}

// MetadataExtractor derives the compact vector metadata indexed alongside
// each embedding: eligibility thresholds, funding summaries and the
// id/name/address fields located in a FlatRecord by key-prefix search.
type MetadataExtractor struct {
	llm CriteriaLLM // nil disables the LLM fallback
}

func NewMetadataExtractor(llm CriteriaLLM) *MetadataExtractor {
	return &MetadataExtractor{llm: llm}
}

var criteriaPatterns = map[string]*regexp.Regexp{
	"IELTS":    regexp.MustCompile(`(?i)IELTS\s+(\d+(\.\d+)?)`),
	"TOEFL":    regexp.MustCompile(`(?i)TOEFL\s+(\d+)`),
	"DUOLINGO": regexp.MustCompile(`(?i)DUOLINGO\s+(\d+)`),
	"GRE":      regexp.MustCompile(`(?i)GRE\s+(\d+)`),
	"CGPA":     regexp.MustCompile(`(?i)CGPA\s+(\d+(\.\d+)?)`),
}

// ExtractCriteria runs the deterministic regex pass over well-formed
// eligibility text ("IELTS 6.5", "CGPA 3.0"). A score the text does not
// mention stays absent.
func ExtractCriteria(text string) models.EligibilityCriteria {
	var criteria models.EligibilityCriteria
	for name, pattern := range criteriaPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		score := models.NewScore(value)
		switch name {
		case "IELTS":
			criteria.IELTS = score
		case "TOEFL":
			criteria.TOEFL = score
		case "DUOLINGO":
			criteria.DUOLINGO = score
		case "GRE":
			criteria.GRE = score
		case "CGPA":
			criteria.CGPA = score
		}
	}
	return criteria
}

// Criteria extracts eligibility thresholds from cleaned program text. The
// regex pass runs first; when it finds nothing and an LLM extractor is
// configured, the structured LLM call takes over. LLM failures degrade to
// empty criteria so one bad call never aborts ingestion.
func (m *MetadataExtractor) Criteria(ctx context.Context, text string) models.EligibilityCriteria {
	criteria := ExtractCriteria(text)
	if criteriaFound(criteria) || m.llm == nil || strings.TrimSpace(text) == "" {
		return criteria
	}

	llmCriteria, err := m.llm.Extract(ctx, text)
	if err != nil {
		logger.Warn("llm eligibility extraction failed, using empty criteria", "error", err)
		return criteria
	}
	return llmCriteria
}

func criteriaFound(c models.EligibilityCriteria) bool {
	return c.IELTS.Set || c.TOEFL.Set || c.DUOLINGO.Set || c.GRE.Set || c.CGPA.Set
}

// ExtractFundingData scans a FlatRecord's funding_* keys into parallel
// arrays. Key order is normalized so the arrays stay index-aligned across
// runs.
func ExtractFundingData(flat FlatRecord) models.FundingSummary {
	summary := models.FundingSummary{
		FundingID:             []int{},
		FundingFor:            []string{},
		FundingType:           []string{},
		FundingOpportunityFor: []string{},
		TitleOfFunding:        []string{},
		Description:           []string{},
	}

	for _, key := range sortedKeys(flat) {
		if !strings.HasPrefix(key, "funding_") {
			continue
		}
		value := flat[key]
		id, isID := asInt(value)
		switch {
		case strings.Contains(key, "_id") && isID:
			summary.FundingID = append(summary.FundingID, id)
		case strings.HasSuffix(key, "funding_for"):
			if s, ok := asNonNilString(value); ok {
				summary.FundingFor = append(summary.FundingFor, s)
			}
		case strings.Contains(key, "_funding_type"):
			if s, ok := asNonNilString(value); ok {
				summary.FundingType = append(summary.FundingType, s)
			}
		case strings.Contains(key, "_funding_opportunity_for"):
			if s, ok := asNonNilString(value); ok {
				summary.FundingOpportunityFor = append(summary.FundingOpportunityFor, s)
			}
		case strings.Contains(key, "_title_of_funding"):
			if s, ok := asNonNilString(value); ok {
				summary.TitleOfFunding = append(summary.TitleOfFunding, s)
			}
		case strings.Contains(key, "_description"):
			if s, ok := asNonNilString(value); ok {
				summary.Description = append(summary.Description, s)
			}
		}
	}
	return summary
}

// MetadataFiltering strips bookkeeping and list-valued keys from a flat user
// record before it is indexed: timestamps, group membership, file refs and
// publication keys never belong in vector metadata. Remaining nils become the
// explicit string "None".
func MetadataFiltering(flat FlatRecord) map[string]any {
	excluded := []string{"deleted_at", "created_at", "sop", "resume", "groups", "custom_groups", "date_joined"}

	filtered := map[string]any{}
	for key, value := range flat {
		if strings.HasPrefix(key, "publication") {
			continue
		}
		skip := false
		for _, substr := range excluded {
			if strings.Contains(key, substr) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		if value == nil {
			value = "None"
		}
		filtered[key] = value
	}
	return filtered
}

// CollegeMetadata assembles the indexing metadata for a flattened college
// graph: college/campus/organization ids and names plus location fields.
// The college statement doubles as the embedding document.
func (m *MetadataExtractor) CollegeMetadata(flat FlatRecord) map[string]any {
	meta := map[string]any{}

	if idKey, ok := findKey(flat, "college_", "_id"); ok {
		id, _ := asInt(flat[idKey])
		meta["college_id"] = id
		prefix := "college_" + strconv.Itoa(id) + "_"
		meta["college_web_address"] = lookup(flat, prefix, "_web_address")
		meta["statement"] = lookup(flat, prefix, "_statement")
		meta["college_name"] = lookup(flat, prefix, "_name")
	}

	addCampusOrganization(flat, meta)
	addLocation(flat, meta)
	return meta
}

// DepartmentMetadata assembles the indexing metadata for a flattened
// department graph.
func (m *MetadataExtractor) DepartmentMetadata(flat FlatRecord) map[string]any {
	meta := map[string]any{}

	if idKey, ok := findKey(flat, "department_", "_id"); ok {
		id, _ := asInt(flat[idKey])
		meta["department_id"] = id
		prefix := "department_" + strconv.Itoa(id) + "_"
		meta["department_web_address"] = lookup(flat, prefix, "_web_address")
		meta["statement"] = lookup(flat, prefix, "_statement")
		meta["department_name"] = lookup(flat, prefix, "_name")
	}

	if idKey, ok := findKey(flat, "college_", "_id"); ok {
		id, _ := asInt(flat[idKey])
		meta["college_id"] = id
		prefix := "college_" + strconv.Itoa(id) + "_"
		meta["college_web_address"] = lookup(flat, prefix, "_web_address")
		meta["college_name"] = lookup(flat, prefix, "_name")
	}

	addCampusOrganization(flat, meta)
	addLocation(flat, meta)
	return meta
}

// ProgramMetadata assembles the indexing metadata for a flattened program
// graph, including parsed eligibility thresholds and the application
// deadline as a Unix timestamp.
func (m *MetadataExtractor) ProgramMetadata(ctx context.Context, flat FlatRecord) map[string]any {
	meta := map[string]any{}

	if idKey, ok := findKey(flat, "program_", "_id"); ok {
		id, _ := asInt(flat[idKey])
		meta["program_id"] = id
		prefix := "program_" + strconv.Itoa(id) + "_"

		meta["program_title"] = lookup(flat, prefix, "_title")
		meta["program_description"] = utils.CleanHTML(asString(lookup(flat, prefix, "_description")))

		eligibilityText := utils.CleanHTML(asString(lookup(flat, prefix, "_eligibility_criteria")))
		criteria := m.Criteria(ctx, eligibilityText)
		meta["IELTS"] = criteria.IELTS.MetaValue()
		meta["TOEFL"] = criteria.TOEFL.MetaValue()
		meta["DUOLINGO"] = criteria.DUOLINGO.MetaValue()
		meta["GRE"] = criteria.GRE.MetaValue()
		meta["CGPA"] = criteria.CGPA.MetaValue()

		meta["application_process"] = lookup(flat, prefix, "_application_process")

		if fee, ok := asFloat(lookup(flat, prefix, "_application_fee")); ok {
			meta["application_fee"] = fee
		} else {
			meta["application_fee"] = ""
		}

		meta["application_end_date"] = deadlineTimestamp(asString(lookup(flat, prefix, "_application_end_date")))
	}

	if idKey, ok := findKey(flat, "department_", "_id"); ok {
		id, _ := asInt(flat[idKey])
		meta["department_id"] = id
		meta["department_name"] = lookup(flat, "department_"+strconv.Itoa(id)+"_", "_name")
	}
	if idKey, ok := findKey(flat, "college_", "_id"); ok {
		id, _ := asInt(flat[idKey])
		meta["college_id"] = id
		meta["college_name"] = lookup(flat, "college_"+strconv.Itoa(id)+"_", "_name")
	}
	if idKey, ok := findKey(flat, "campus_", "_id"); ok {
		id, _ := asInt(flat[idKey])
		meta["campus_id"] = id
		meta["campus_name"] = lookup(flat, "campus_"+strconv.Itoa(id)+"_", "_name")
	}
	if idKey, ok := findKey(flat, "organization_", "_id"); ok {
		id, _ := asInt(flat[idKey])
		meta["organization_id"] = id
		meta["organization_name"] = lookup(flat, "organization_"+strconv.Itoa(id)+"_", "_name")
	}

	addLocation(flat, meta)
	return meta
}

// deadlineTimestamp converts a YYYY-MM-DD deadline into a Unix timestamp.
// An absent or unparsable date yields the empty sentinel so the date range
// filter treats the program as having no deadline.
func deadlineTimestamp(date string) any {
	if strings.TrimSpace(date) == "" {
		return ""
	}
	t, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		logger.Warn("unparsable application_end_date", "value", date)
		return ""
	}
	return t.Unix()
}

func addCampusOrganization(flat FlatRecord, meta map[string]any) {
	if idKey, ok := findKey(flat, "campus_", "_id"); ok {
		id, _ := asInt(flat[idKey])
		meta["campus_id"] = id
		prefix := "campus_" + strconv.Itoa(id) + "_"
		meta["campus_web_address"] = lookup(flat, prefix, "_web_address")
		meta["campus_name"] = lookup(flat, prefix, "_name")
	}
	if idKey, ok := findKey(flat, "organization_", "_id"); ok {
		id, _ := asInt(flat[idKey])
		meta["organization_id"] = id
		prefix := "organization_" + strconv.Itoa(id) + "_"
		meta["organization_web_address"] = lookup(flat, prefix, "_web_address")
		meta["under_category_name"] = lookup(flat, prefix, "_under_category_name")
		meta["organization_name"] = lookup(flat, prefix, "_name")
	}
}

func addLocation(flat FlatRecord, meta map[string]any) {
	meta["country_name"] = lookup(flat, "", "_country_name")
	meta["country_code"] = lookup(flat, "", "_country_code")
	meta["state_province_name"] = lookup(flat, "", "_state_province_name")
	meta["city"] = lookup(flat, "", "_city")
}

// findKey returns the first key (in sorted order) with the given prefix and
// suffix.
func findKey(flat FlatRecord, prefix, suffix string) (string, bool) {
	for _, key := range sortedKeys(flat) {
		if strings.HasPrefix(key, prefix) && strings.HasSuffix(key, suffix) {
			return key, true
		}
	}
	return "", false
}

// lookup returns the value under the first prefix/suffix match, or "" when
// no key matches so metadata never carries missing keys as nil.
func lookup(flat FlatRecord, prefix, suffix string) any {
	key, ok := findKey(flat, prefix, suffix)
	if !ok {
		return ""
	}
	if flat[key] == nil {
		return ""
	}
	return flat[key]
}

func sortedKeys(flat FlatRecord) []string {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asNonNilString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
