package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxAuthorLength  = 100
	MaxContentLength = 2000
	MaxEmailLength   = 254
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail 与前端表单使用同一规则
func ValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}
