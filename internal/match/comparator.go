package match

// FieldVerdict is the outcome of comparing one field across both documents.
type FieldVerdict struct {
	Field     string `json:"field"`
	Matched   bool   `json:"matched"`
	Rationale string `json:"rationale"`
}

// Result aggregates per-field verdicts into the overall verification verdict.
// Matched and Mismatched are disjoint and their union is exactly the set of
// fields present in both inputs; a field absent (or empty) on either side is
// excluded from comparison entirely rather than counted as a mismatch.
type Result struct {
	Verified   bool              `json:"isVerified"`
	Matched    []string          `json:"matchedFields"`
	Mismatched []string          `json:"mismatchedFields"`
	Details    map[string]string `json:"details"`
}

// Verdicts rebuilds the ordered per-field verdict list from the result.
func (r Result) Verdicts() []FieldVerdict {
	var out []FieldVerdict
	for _, field := range ComparedFields {
		rationale, ok := r.Details[field]
		if !ok {
			continue
		}
		out = append(out, FieldVerdict{
			Field:     field,
			Matched:   contains(r.Matched, field),
			Rationale: rationale,
		})
	}
	return out
}

var rationales = map[string][2]string{
	FieldName:    {"Names differ significantly", "Matched with high confidence"},
	FieldPhone:   {"Phone numbers differ", "Phone numbers match"},
	FieldAddress: {"Addresses differ significantly", "Addresses match with high similarity"},
}

// CompareFields compares the extractions from the two documents field by
// field and decides the overall verdict. Name and address go through the
// fuzzy matcher at the given threshold, phone through exact digit matching.
// The comparison is deterministic: the same inputs always produce the same
// result.
func CompareFields(id, bank Fields, threshold int) Result {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	result := Result{Details: map[string]string{}}
	for _, field := range ComparedFields {
		a, b := id.get(field), bank.get(field)
		if a == nil || b == nil {
			continue
		}
		if Normalize(*a) == "" || Normalize(*b) == "" {
			continue
		}

		var matched bool
		if field == FieldPhone {
			matched = PhoneMatch(*a, *b)
		} else {
			matched = FuzzyMatch(*a, *b, threshold)
		}

		if matched {
			result.Matched = append(result.Matched, field)
		} else {
			result.Mismatched = append(result.Mismatched, field)
		}
		result.Details[field] = rationales[field][boolIndex(matched)]
	}

	result.Verified = Decide(result.Matched, result.Mismatched)
	return result
}

func boolIndex(b bool) int {
	if b {
		return 1
	}
	return 0
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
