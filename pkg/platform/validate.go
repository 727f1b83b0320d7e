package platform

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func requireParam(name, value string) error {
	if blank(value) {
		return argumentError(name, "%s required", name)
	}
	return nil
}

// exactlyOne checks that one and only one of the alternatives is set. names
// and values are parallel.
func exactlyOne(names []string, values ...string) error {
	set := 0
	for _, v := range values {
		if !blank(v) {
			set++
		}
	}
	joined := strings.Join(names, " or ")
	switch {
	case set == 0:
		return argumentError(names[0], "%s required", joined)
	case set > 1:
		return argumentError(names[0], "only one of %s may be passed", joined)
	}
	return nil
}

// maxLen counts characters, not bytes.
func maxLen(name, value string, n int) error {
	if utf8.RuneCountInString(value) > n {
		return argumentError(name, "%s must be %d characters or less", name, n)
	}
	return nil
}

func requireUUID(name, value string) error {
	if _, err := uuid.Parse(value); err != nil {
		return argumentError(name, "%s must be an RFC 4122 UUID", name)
	}
	return nil
}

// canonicalUUID rewrites braced, urn and undashed UUID forms to the dashed
// lowercase form. Values that do not parse are returned trimmed.
func canonicalUUID(value string) string {
	value = strings.TrimSpace(value)
	if u, err := uuid.Parse(value); err == nil {
		return u.String()
	}
	return value
}
