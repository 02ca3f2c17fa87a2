package service

import "strings"

// Normalize trims, collapses inner whitespace and upper-cases a postal code
func Normalize(value string) string {
	return strings.ToUpper(strings.Join(strings.Fields(value), " "))
}
