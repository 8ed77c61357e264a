package services

import (
	"fmt"

	"coco-admissions-platform/internal/logger"
)

// FlatRecord is a single-level string-keyed map of scalars produced by
// denormalizing a nested entity graph. Keys carry their provenance as a
// {entity_type}_{entity_id}_{field} path.
type FlatRecord map[string]any

// Flatten collapses data into flat prefix-keyed entries. Nested maps recurse
// with the field name appended to the prefix; list-valued fields whose
// elements are records flatten each element under the field name keyed by the
// element's own id (position when no id); nil and scalar leaves pass through
// unchanged. A leaf that is neither a map, a record list, nor a scalar is
// stringified under its positional key so one odd field never aborts
// ingestion of an otherwise valid entity.
func Flatten(data map[string]any, prefix string) FlatRecord {
	flat := FlatRecord{}
	flattenInto(flat, data, prefix)
	return flat
}

func flattenInto(flat FlatRecord, data map[string]any, prefix string) {
	for key, value := range data {
		switch v := value.(type) {
		case map[string]any:
			flattenInto(flat, v, prefix+key+"_")
		case []map[string]any:
			mergeFlat(flat, FlattenList(v, key))
		case []any:
			if items, ok := asRecordSlice(v); ok {
				mergeFlat(flat, FlattenList(items, key))
				continue
			}
			logger.Warn("flatten: coercing uninterpretable leaf to string",
				"key", prefix+key, "go_type", fmt.Sprintf("%T", value))
			flat[prefix+key] = fmt.Sprintf("%v", v)
		case nil, string, bool, int, int32, int64, float32, float64:
			flat[prefix+key] = v
		default:
			logger.Warn("flatten: coercing uninterpretable leaf to string",
				"key", prefix+key, "go_type", fmt.Sprintf("%T", value))
			flat[prefix+key] = fmt.Sprintf("%v", v)
		}
	}
}

// asRecordSlice converts a []any whose elements are all records. A slice with
// any non-map element is not a record list and falls back to stringification.
func asRecordSlice(v []any) ([]map[string]any, bool) {
	items := make([]map[string]any, len(v))
	for i, elem := range v {
		m, ok := elem.(map[string]any)
		if !ok {
			return nil, false
		}
		items[i] = m
	}
	return items, true
}

// FlattenList flattens a slice of records, keying each element by its own id
// when one is present and by position otherwise. Sibling entities of the same
// type therefore always get distinct prefixes.
func FlattenList(items []map[string]any, entityType string) FlatRecord {
	flat := FlatRecord{}
	for i, item := range items {
		prefix := fmt.Sprintf("%s_%d_", entityType, i)
		if id, ok := recordID(item); ok {
			prefix = fmt.Sprintf("%s_%d_", entityType, id)
		}
		flattenInto(flat, item, prefix)
	}
	return flat
}

// recordID pulls an integer id out of a record, tolerating the numeric types
// different decoders produce.
func recordID(item map[string]any) (int, bool) {
	switch id := item["id"].(type) {
	case int:
		return id, true
	case int32:
		return int(id), true
	case int64:
		return int(id), true
	case float64:
		return int(id), true
	}
	return 0, false
}
