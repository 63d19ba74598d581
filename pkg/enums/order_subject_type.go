package enums

import "fmt"

// OrderSubjectType distinguishes what a purchase attempt is buying.
type OrderSubjectType string

const (
	OrderSubjectRestomod OrderSubjectType = "restomod"
	OrderSubjectPackage  OrderSubjectType = "package"
)

var validOrderSubjectTypes = []OrderSubjectType{
	OrderSubjectRestomod,
	OrderSubjectPackage,
}

// String implements fmt.Stringer.
func (t OrderSubjectType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known OrderSubjectType.
func (t OrderSubjectType) IsValid() bool {
	for _, candidate := range validOrderSubjectTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOrderSubjectType converts raw input into an OrderSubjectType.
func ParseOrderSubjectType(value string) (OrderSubjectType, error) {
	for _, candidate := range validOrderSubjectTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order subject type %q", value)
}
