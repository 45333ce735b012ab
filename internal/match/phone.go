package match

// PhoneMatch compares two phone numbers by exact equality of their
// normalized digit strings. Phones are high-precision identifiers, so there
// is no fuzzy tolerance: approximate matching would create false positives.
// An input with no digits after cleaning never matches.
func PhoneMatch(a, b string) bool {
	da, db := NormalizePhone(a), NormalizePhone(b)
	if da == "" || db == "" {
		return false
	}
	return da == db
}
