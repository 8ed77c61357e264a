package vectorstore

import "testing"

func TestWhereMatchesEmpty(t *testing.T) {
	meta := Metadata{"city": "Boston"}
	if !(Where)(nil).Matches(meta) {
		t.Error("nil predicate should match every record")
	}
	if !(Where{}).Matches(meta) {
		t.Error("empty predicate should match every record")
	}
}

func TestWhereMatchesEquality(t *testing.T) {
	meta := Metadata{"city": "Boston", "CGPA": 3.2, "funding_available": "True"}

	tests := []struct {
		name  string
		where Where
		want  bool
	}{
		{"shorthand match", Where{"city": "Boston"}, true},
		{"shorthand mismatch", Where{"city": "Toronto"}, false},
		{"eq match", Where{"funding_available": map[string]any{"$eq": "True"}}, true},
		{"ne match", Where{"city": map[string]any{"$ne": "Toronto"}}, true},
		{"ne mismatch", Where{"city": map[string]any{"$ne": "Boston"}}, false},
		{"numeric eq across int and float", Where{"CGPA": map[string]any{"$eq": 3.2}}, true},
		{"missing field", Where{"country": "USA"}, false},
		{"unknown operator", Where{"city": map[string]any{"$near": "Boston"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.where.Matches(meta); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWhereMatchesComparisons(t *testing.T) {
	tests := []struct {
		name  string
		meta  Metadata
		where Where
		want  bool
	}{
		{"lte below", Metadata{"CGPA": 2.8}, Where{"CGPA": map[string]any{"$lte": 3.0}}, true},
		{"lte equal", Metadata{"CGPA": 3.0}, Where{"CGPA": map[string]any{"$lte": 3.0}}, true},
		{"lte above", Metadata{"CGPA": 3.5}, Where{"CGPA": map[string]any{"$lte": 3.0}}, false},
		{"lte non-numeric", Metadata{"CGPA": ""}, Where{"CGPA": map[string]any{"$lte": 3.0}}, false},
		{"gt after", Metadata{"application_end_date": int64(1900000000)}, Where{"application_end_date": map[string]any{"$gt": int64(1756000000)}}, true},
		{"gt before", Metadata{"application_end_date": int64(1600000000)}, Where{"application_end_date": map[string]any{"$gt": int64(1756000000)}}, false},
		{"gt non-numeric", Metadata{"application_end_date": ""}, Where{"application_end_date": map[string]any{"$gt": int64(1756000000)}}, false},
		{"lt", Metadata{"IELTS": 6.0}, Where{"IELTS": map[string]any{"$lt": 6.5}}, true},
		{"gte equal", Metadata{"TOEFL": 90}, Where{"TOEFL": map[string]any{"$gte": 90.0}}, true},
		{"in hit", Metadata{"city": "Boston"}, Where{"city": map[string]any{"$in": []any{"Boston", "Toronto"}}}, true},
		{"in miss", Metadata{"city": "Berlin"}, Where{"city": map[string]any{"$in": []any{"Boston", "Toronto"}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.where.Matches(tt.meta); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

// A stated requirement at or under the threshold matches, an unset
// requirement (empty string) matches via the OR branch, and a requirement
// above the threshold does not.
func TestWhereRangeWithUnsetSentinel(t *testing.T) {
	where := Where{
		"$or": []map[string]any{
			{"CGPA": map[string]any{"$lte": 3.0}},
			{"CGPA": map[string]any{"$eq": ""}},
		},
	}

	if !where.Matches(Metadata{"CGPA": 2.8}) {
		t.Error("requirement below threshold should match")
	}
	if !where.Matches(Metadata{"CGPA": ""}) {
		t.Error("unset requirement should match through the empty branch")
	}
	if where.Matches(Metadata{"CGPA": 3.5}) {
		t.Error("requirement above threshold should not match")
	}
}

func TestWhereAndOr(t *testing.T) {
	meta := Metadata{"city": "Boston", "funding_available": "True", "TOEFL": 80}

	and := Where{"$and": []any{
		map[string]any{"city": "Boston"},
		map[string]any{"funding_available": "True"},
	}}
	if !and.Matches(meta) {
		t.Error("both branches hold, $and should match")
	}

	and = Where{"$and": []any{
		map[string]any{"city": "Boston"},
		map[string]any{"funding_available": "False"},
	}}
	if and.Matches(meta) {
		t.Error("one branch fails, $and should not match")
	}

	or := Where{"$or": []map[string]any{
		{"city": map[string]any{"$eq": "Toronto"}},
		{"city": map[string]any{"$eq": "Boston"}},
	}}
	if !or.Matches(meta) {
		t.Error("one branch holds, $or should match")
	}

	if (Where{"$or": []any{}}).Matches(meta) {
		t.Error("empty $or should match nothing")
	}
}
