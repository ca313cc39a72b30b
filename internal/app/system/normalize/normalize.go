// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email lower-cases and trims an email address. Emails are stored in this
// form so lookups and the unique index are case-insensitive.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses inner runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NIM trims a member number. NIMs are compared verbatim otherwise
// (leading zeros are significant).
func NIM(s string) string {
	return strings.TrimSpace(s)
}

// Identifier normalizes a login identifier that may be either an email or a
// NIM: anything containing '@' is treated as an email.
func Identifier(s string) string {
	if strings.Contains(s, "@") {
		return Email(s)
	}
	return NIM(s)
}

// QueryParam trims a raw query-string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
