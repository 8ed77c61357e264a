package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"coco-admissions-platform/internal/telemetry"
	"coco-admissions-platform/internal/vectorstore"
	"coco-admissions-platform/models"
)

// ErrRecommendationUnavailable signals that the requesting user has no
// stored embedding, usually because their profile was never ingested. The
// HTTP layer surfaces it as insufficient profile data, not a generic 500.
var ErrRecommendationUnavailable = errors.New("no stored embedding for user")

// Filters is the caller-supplied filter set. A value is either a single
// string or a list of acceptable strings.
type Filters map[string]any

// rangeFields become OR(field <= value, field == "") clauses: the program's
// requirement is at or below what the student offers, or the program has no
// stated requirement at all.
var rangeFields = []string{"CGPA", "IELTS", "TOEFL", "GRE", "DUOLINGO", "application_fee"}

// programEqualityFields and researcherEqualityFields are matched exactly, or
// as an OR of equalities when the caller supplies a list.
var programEqualityFields = []string{
	"organization_name", "department_name", "college_name",
	"country_name", "state_province_name", "city", "funding_available",
}

var researcherEqualityFields = []string{
	"organization_name", "department_name", "college_name", "city",
	"funding_available", "funding_type", "funding_opportunity_for",
}

// Recommender serves filtered nearest-neighbor matches of a student's
// embedding against the program or researcher collections.
type Recommender struct {
	store   *vectorstore.Store
	cache   *RecommendationCache
	metrics *telemetry.Metrics
	topN    int
}

func NewRecommender(store *vectorstore.Store, cache *RecommendationCache, metrics *telemetry.Metrics, topN int) *Recommender {
	if topN <= 0 {
		topN = 10
	}
	return &Recommender{store: store, cache: cache, metrics: metrics, topN: topN}
}

// BuildProgramFilter assembles the metadata predicate for program searches.
// Zero filter groups collapse to no constraint; a single group is returned
// without the redundant $and wrapper.
func BuildProgramFilter(filters Filters, now time.Time) (vectorstore.Where, error) {
	var groups []map[string]any

	for _, field := range rangeFields {
		value, ok := singleValue(filters, field)
		if !ok {
			continue
		}
		limit, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s filter value %q", field, value)
		}
		groups = append(groups, map[string]any{
			"$or": []map[string]any{
				{field: map[string]any{"$lte": limit}},
				{field: map[string]any{"$eq": ""}},
			},
		})
	}

	if value, ok := singleValue(filters, "application_end_date"); ok {
		deadline, err := time.ParseInLocation("2006-01-02", value, now.Location())
		if err != nil {
			return nil, fmt.Errorf("invalid application_end_date filter value %q", value)
		}
		groups = append(groups, map[string]any{
			"$or": []map[string]any{
				{"application_end_date": map[string]any{"$gt": deadline.Unix()}},
				{"application_end_date": map[string]any{"$eq": ""}},
			},
		})
	}

	groups = append(groups, equalityGroups(filters, programEqualityFields)...)
	return collapseGroups(groups), nil
}

// BuildResearcherFilter assembles the metadata predicate for researcher
// searches; only equality fields apply.
func BuildResearcherFilter(filters Filters) (vectorstore.Where, error) {
	groups := equalityGroups(filters, researcherEqualityFields)
	return collapseGroups(groups), nil
}

func equalityGroups(filters Filters, fields []string) []map[string]any {
	var groups []map[string]any
	for _, field := range fields {
		raw, ok := filters[field]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case []string:
			if len(v) == 0 {
				continue
			}
			ors := make([]map[string]any, len(v))
			for i, value := range v {
				ors[i] = map[string]any{field: map[string]any{"$eq": value}}
			}
			groups = append(groups, map[string]any{"$or": ors})
		case string:
			if v == "" {
				continue
			}
			groups = append(groups, map[string]any{field: map[string]any{"$eq": v}})
		}
	}
	return groups
}

// collapseGroups applies the filter collapse law: zero groups mean no
// constraint, one group drops the $and wrapper.
func collapseGroups(groups []map[string]any) vectorstore.Where {
	switch len(groups) {
	case 0:
		return nil
	case 1:
		return vectorstore.Where(groups[0])
	default:
		subs := make([]any, len(groups))
		for i, g := range groups {
			subs[i] = g
		}
		return vectorstore.Where{"$and": subs}
	}
}

func singleValue(filters Filters, field string) (string, bool) {
	raw, ok := filters[field]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// RecommendPrograms matches the user's embedding against the program
// collection. The second return value is the user's stored embedding
// document, surfaced by the HTTP layer for display.
func (r *Recommender) RecommendPrograms(ctx context.Context, userID int, filters Filters) (string, []models.RecommendationResult, error) {
	embedding, document, err := r.userEmbedding(userID)
	if err != nil {
		r.recordQuery("universities", "unavailable")
		return "", nil, err
	}

	where, err := BuildProgramFilter(filters, time.Now())
	if err != nil {
		r.recordQuery("universities", "bad_filter")
		return "", nil, err
	}

	if r.cache != nil {
		if results, ok := r.cache.Get(ctx, ProgramCollection, userID, filters); ok {
			r.recordQuery("universities", "cache_hit")
			return document, results, nil
		}
	}

	hits, err := r.query(ProgramCollection, embedding, where)
	if err != nil {
		r.recordQuery("universities", "error")
		return "", nil, err
	}

	results := make([]models.RecommendationResult, len(hits))
	for i, hit := range hits {
		results[i] = models.RecommendationResult{
			ID:       hit.ID,
			Distance: hit.Distance,
			Fields: map[string]any{
				"program_title":        metaOrEmpty(hit.Metadata, "program_title"),
				"organization_name":    metaOrEmpty(hit.Metadata, "organization_name"),
				"department_name":      metaOrEmpty(hit.Metadata, "department_name"),
				"college_name":         metaOrEmpty(hit.Metadata, "college_name"),
				"country_name":         metaOrEmpty(hit.Metadata, "country_name"),
				"state_province_name":  metaOrEmpty(hit.Metadata, "state_province_name"),
				"city":                 metaOrEmpty(hit.Metadata, "city"),
				"IELTS":                metaOrEmpty(hit.Metadata, "IELTS"),
				"TOEFL":                metaOrEmpty(hit.Metadata, "TOEFL"),
				"DUOLINGO":             metaOrEmpty(hit.Metadata, "DUOLINGO"),
				"GRE":                  metaOrEmpty(hit.Metadata, "GRE"),
				"CGPA":                 metaOrEmpty(hit.Metadata, "CGPA"),
				"funding_available":    metaOrEmpty(hit.Metadata, "funding_available"),
				"application_fee":      metaOrEmpty(hit.Metadata, "application_fee"),
				"application_end_date": deadlineString(hit.Metadata["application_end_date"]),
			},
		}
	}

	if r.cache != nil {
		r.cache.Set(ctx, ProgramCollection, userID, filters, results)
	}
	r.recordQuery("universities", "ok")
	return document, results, nil
}

// RecommendResearchers matches the user's embedding against the researcher
// collection.
func (r *Recommender) RecommendResearchers(ctx context.Context, userID int, filters Filters) (string, []models.RecommendationResult, error) {
	embedding, document, err := r.userEmbedding(userID)
	if err != nil {
		r.recordQuery("professors", "unavailable")
		return "", nil, err
	}

	where, err := BuildResearcherFilter(filters)
	if err != nil {
		r.recordQuery("professors", "bad_filter")
		return "", nil, err
	}

	if r.cache != nil {
		if results, ok := r.cache.Get(ctx, ResearcherUserCollection, userID, filters); ok {
			r.recordQuery("professors", "cache_hit")
			return document, results, nil
		}
	}

	hits, err := r.query(ResearcherUserCollection, embedding, where)
	if err != nil {
		r.recordQuery("professors", "error")
		return "", nil, err
	}

	results := make([]models.RecommendationResult, len(hits))
	for i, hit := range hits {
		results[i] = models.RecommendationResult{
			ID:       hit.ID,
			Distance: hit.Distance,
			Fields: map[string]any{
				"name":                    metaOrEmpty(hit.Metadata, "name"),
				"type":                    metaOrEmpty(hit.Metadata, "type"),
				"organization_name":       metaOrEmpty(hit.Metadata, "organization_name"),
				"department_name":         metaOrEmpty(hit.Metadata, "department_name"),
				"college_name":            metaOrEmpty(hit.Metadata, "college_name"),
				"city":                    metaOrEmpty(hit.Metadata, "city"),
				"funding_available":       metaOrEmpty(hit.Metadata, "funding_available"),
				"funding_type":            metaOrEmpty(hit.Metadata, "funding_type"),
				"funding_opportunity_for": metaOrEmpty(hit.Metadata, "funding_opportunity_for"),
			},
		}
	}

	if r.cache != nil {
		r.cache.Set(ctx, ResearcherUserCollection, userID, filters, results)
	}
	r.recordQuery("professors", "ok")
	return document, results, nil
}

// userEmbedding fetches the user's previously ingested embedding and stored
// document from the student collection.
func (r *Recommender) userEmbedding(userID int) ([]float32, string, error) {
	collection, err := r.store.GetOrCreateCollection(StudentUserCollection)
	if err != nil {
		return nil, "", err
	}
	rec, err := collection.Get(strconv.Itoa(userID))
	if errors.Is(err, vectorstore.ErrNotFound) {
		return nil, "", fmt.Errorf("user %d: %w", userID, ErrRecommendationUnavailable)
	}
	if err != nil {
		return nil, "", err
	}
	return rec.Embedding, rec.Document, nil
}

func (r *Recommender) query(collectionName string, embedding []float32, where vectorstore.Where) ([]vectorstore.QueryResult, error) {
	collection, err := r.store.GetOrCreateCollection(collectionName)
	if err != nil {
		return nil, err
	}
	return collection.Query(embedding, r.topN, where)
}

func (r *Recommender) recordQuery(searchType, status string) {
	if r.metrics != nil {
		r.metrics.RecordRecommendationQuery(searchType, status)
	}
}

// metaOrEmpty defaults an absent metadata field to the explicit empty
// string; result rows never omit a key.
func metaOrEmpty(meta vectorstore.Metadata, key string) any {
	if v, ok := meta[key]; ok && v != nil {
		return v
	}
	return ""
}

// deadlineString renders a stored Unix deadline back to YYYY-MM-DD; the
// empty sentinel stays empty.
func deadlineString(v any) string {
	ts, ok := asInt(v)
	if !ok || ts == 0 {
		return ""
	}
	return time.Unix(int64(ts), 0).Format("2006-01-02")
}
