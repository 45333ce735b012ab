package match

// quorum is the minimum number of matching fields for a verified verdict.
const quorum = 2

// Decide applies the quorum rule: verified iff at least two fields matched,
// regardless of mismatches elsewhere. A stale phone number on one document
// does not sink a verification when name and address strongly agree.
func Decide(matched, mismatched []string) bool {
	_ = mismatched
	return len(matched) >= quorum
}
