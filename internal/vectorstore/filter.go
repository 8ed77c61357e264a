package vectorstore

// Where is a metadata predicate tree in the operator language the
// recommendation engine emits:
//
//	{"$and": [w1, w2, ...]}              all sub-predicates match
//	{"$or":  [w1, w2, ...]}              any sub-predicate matches
//	{"field": {"$lte": 3.0}}             field comparison
//	{"field": "value"}                   shorthand for {"field": {"$eq": "value"}}
//
// Supported comparison operators: $eq, $ne, $lt, $lte, $gt, $gte, $in.
// A nil or empty Where matches every record.
type Where map[string]any

// Matches evaluates the predicate tree against a record's metadata.
// Unknown operators and type mismatches evaluate to false rather than
// erroring, matching the permissive behavior of metadata query engines:
// a malformed branch excludes records instead of failing the whole query.
func (w Where) Matches(meta Metadata) bool {
	if len(w) == 0 {
		return true
	}
	for key, cond := range w {
		switch key {
		case "$and":
			for _, sub := range subClauses(cond) {
				if !sub.Matches(meta) {
					return false
				}
			}
		case "$or":
			subs := subClauses(cond)
			if len(subs) == 0 {
				return false
			}
			matched := false
			for _, sub := range subs {
				if sub.Matches(meta) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		default:
			if !matchField(meta, key, cond) {
				return false
			}
		}
	}
	return true
}

func subClauses(cond any) []Where {
	switch v := cond.(type) {
	case []Where:
		return v
	case []map[string]any:
		subs := make([]Where, len(v))
		for i, m := range v {
			subs[i] = Where(m)
		}
		return subs
	case []any:
		var subs []Where
		for _, item := range v {
			switch m := item.(type) {
			case Where:
				subs = append(subs, m)
			case map[string]any:
				subs = append(subs, Where(m))
			}
		}
		return subs
	default:
		return nil
	}
}

func matchField(meta Metadata, field string, cond any) bool {
	value, exists := meta[field]
	if !exists {
		return false
	}

	ops, ok := asOperatorMap(cond)
	if !ok {
		// Bare value is shorthand for equality.
		return compareEqual(value, cond)
	}

	for op, operand := range ops {
		switch op {
		case "$eq":
			if !compareEqual(value, operand) {
				return false
			}
		case "$ne":
			if compareEqual(value, operand) {
				return false
			}
		case "$lt":
			if !compareLess(value, operand) {
				return false
			}
		case "$lte":
			if !compareLess(value, operand) && !compareEqual(value, operand) {
				return false
			}
		case "$gt":
			if !compareLess(operand, value) {
				return false
			}
		case "$gte":
			if !compareLess(operand, value) && !compareEqual(value, operand) {
				return false
			}
		case "$in":
			if !compareIn(value, operand) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func asOperatorMap(cond any) (map[string]any, bool) {
	switch m := cond.(type) {
	case Where:
		return m, len(m) > 0
	case map[string]any:
		for k := range m {
			if len(k) == 0 || k[0] != '$' {
				return nil, false
			}
		}
		return m, len(m) > 0
	default:
		return nil, false
	}
}

func compareEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aNum := asFloat64(a)
	bf, bNum := asFloat64(b)
	if aNum && bNum {
		return af == bf
	}
	if aNum != bNum {
		return false
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return false
	}
}

func compareLess(a, b any) bool {
	af, aNum := asFloat64(a)
	bf, bNum := asFloat64(b)
	if !aNum || !bNum {
		return false
	}
	return af < bf
}

func compareIn(value, operand any) bool {
	items, ok := operand.([]any)
	if !ok {
		return false
	}
	for _, item := range items {
		if compareEqual(value, item) {
			return true
		}
	}
	return false
}

func asFloat64(v any) (float64, bool) {
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
	default:
		return 0, false
	}
}
