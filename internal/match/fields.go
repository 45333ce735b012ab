package match

// Fields is the structured data pulled out of one document.
// A nil pointer means the field was absent from the document, which is
// distinct from an empty string produced by a bad extraction.
type Fields struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// Field names in comparison order.
const (
	FieldName    = "name"
	FieldPhone   = "phone"
	FieldAddress = "address"
)

// ComparedFields lists the fields the comparator inspects, in output order.
var ComparedFields = []string{FieldName, FieldPhone, FieldAddress}

func (f Fields) get(field string) *string {
	switch field {
	case FieldName:
		return f.Name
	case FieldPhone:
		return f.Phone
	case FieldAddress:
		return f.Address
	default:
		return nil
	}
}

// Empty reports whether no field carries a value.
func (f Fields) Empty() bool {
	return f.Name == nil && f.Phone == nil && f.Address == nil
}

// StringPtr is a convenience for building Fields literals.
func StringPtr(s string) *string {
	return &s
}
