package services

import (
	"reflect"
	"testing"
)

func TestFlattenNested(t *testing.T) {
	data := map[string]any{
		"id":   5,
		"name": "School of Engineering",
		"address": map[string]any{
			"city":         "Boston",
			"country_name": "USA",
		},
		"statement": nil,
	}

	got := Flatten(data, "college_5_")
	want := FlatRecord{
		"college_5_id":                   5,
		"college_5_name":                 "School of Engineering",
		"college_5_address_city":         "Boston",
		"college_5_address_country_name": "USA",
		"college_5_statement":            nil,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten() = %#v, want %#v", got, want)
	}
}

// A list-valued nested field flattens each element under the field name
// keyed by the element's own id, so raw denormalized input keeps its list
// structure without a separate FlattenList call.
func TestFlattenListValuedField(t *testing.T) {
	data := map[string]any{
		"id":   5,
		"name": "School of Engineering",
		"department": []map[string]any{
			{"id": 9, "name": "Computer Science"},
		},
	}

	got := Flatten(data, "college_5_")
	want := FlatRecord{
		"college_5_id":      5,
		"college_5_name":    "School of Engineering",
		"department_9_id":   9,
		"department_9_name": "Computer Science",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten() = %#v, want %#v", got, want)
	}
}

// Decoders that hand back []any get the same treatment when every element is
// a record; a mixed list still degrades to the stringified leaf.
func TestFlattenAnySliceOfRecords(t *testing.T) {
	got := Flatten(map[string]any{
		"funding": []any{
			map[string]any{"id": 12, "title_of_funding": "Dean's Fellowship"},
			map[string]any{"title_of_funding": "Anonymous Grant"},
		},
	}, "department_9_")

	if got["funding_12_title_of_funding"] != "Dean's Fellowship" {
		t.Errorf("id-keyed element missing: %#v", got)
	}
	if got["funding_1_title_of_funding"] != "Anonymous Grant" {
		t.Errorf("position-keyed element missing: %#v", got)
	}

	mixed := Flatten(map[string]any{"tags": []any{"a", 1}}, "")
	if mixed["tags"] != "[a 1]" {
		t.Errorf("mixed list = %#v, want stringified form", mixed["tags"])
	}
}

func TestFlattenNoPrefix(t *testing.T) {
	got := Flatten(map[string]any{"user_id": 9}, "")
	if got["user_id"] != 9 {
		t.Errorf("got %#v", got)
	}
}

func TestFlattenCoercesOddLeaves(t *testing.T) {
	got := Flatten(map[string]any{"scores": []int{1, 2}}, "")
	if got["scores"] != "[1 2]" {
		t.Errorf("odd leaf = %#v, want stringified form", got["scores"])
	}
}

// Sibling entities of different types keep distinct prefixes, so a college
// and a department flattened into the same record never collide even when
// field names repeat.
func TestFlattenSiblingPrefixes(t *testing.T) {
	flat := Flatten(map[string]any{"name": "Engineering"}, "college_5_")
	for k, v := range Flatten(map[string]any{"name": "Computer Science"}, "department_9_") {
		flat[k] = v
	}

	if flat["college_5_name"] != "Engineering" || flat["department_9_name"] != "Computer Science" {
		t.Errorf("sibling fields collided: %#v", flat)
	}
}

func TestFlattenList(t *testing.T) {
	items := []map[string]any{
		{"id": 12, "title_of_funding": "Dean's Fellowship"},
		{"title_of_funding": "Anonymous Grant"}, // no id, keyed by position
	}

	got := FlattenList(items, "funding")
	if got["funding_12_title_of_funding"] != "Dean's Fellowship" {
		t.Errorf("id-keyed entry missing: %#v", got)
	}
	if got["funding_1_title_of_funding"] != "Anonymous Grant" {
		t.Errorf("position-keyed entry missing: %#v", got)
	}
}
