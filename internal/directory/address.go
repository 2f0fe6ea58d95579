package directory

import "strings"

// addressSuffix is the channel's suffix for one-to-one chats.
const addressSuffix = "@c.us"

// ValidNumber reports whether s is a non-empty string of digits.
func ValidNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Address builds a channel address from a phone number. Values that are
// already addresses are returned unchanged.
func Address(number string) string {
	number = strings.TrimSpace(number)
	if strings.Contains(number, "@") {
		return number
	}
	return number + addressSuffix
}

// Number strips the channel suffix from an address.
func Number(address string) string {
	return strings.TrimSuffix(address, addressSuffix)
}

// ParseNameAndNumber splits the "Name, 5543..." form used by the add-user
// flows. It returns ok=false when either part is missing or the number is
// not all digits.
func ParseNameAndNumber(s string) (name, number string, ok bool) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	name = strings.TrimSpace(parts[0])
	number = strings.TrimSpace(parts[1])
	if name == "" || !ValidNumber(number) {
		return "", "", false
	}
	return name, number, true
}
