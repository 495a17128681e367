package domain

import "strings"

// ItemType is a resource class managed by the backend.
type ItemType string

const (
	ItemCashVoucher   ItemType = "cash-voucher"
	ItemChequeVoucher ItemType = "cheque-voucher"
)

var resources = map[ItemType]string{
	ItemCashVoucher:   "cash-vouchers",
	ItemChequeVoucher: "cheque-vouchers",
}

// Resource returns the backend path segment for t.
func (t ItemType) Resource() (string, bool) {
	r, ok := resources[t]
	return r, ok
}

// Label renders t for humans: "cash-voucher" -> "Cash voucher".
func (t ItemType) Label() string {
	s := strings.ReplaceAll(string(t), "-", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ValidItemID reports whether id can stand as one backend path segment. Path
// escaping covers "/", but "." and ".." would still be resolved by the backend.
func ValidItemID(id string) bool {
	return id != "" && id != "." && id != ".."
}

// ItemTypeForResource is the inverse of Resource.
func ItemTypeForResource(resource string) (ItemType, bool) {
	for t, r := range resources {
		if r == resource {
			return t, true
		}
	}
	return "", false
}
