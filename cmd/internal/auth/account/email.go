package account

import (
	"regexp"
	"strings"
)

const (
	maxEmailLen  = 254
	maxLocalLen  = 64
	maxDomainLen = 255
	maxLabelLen  = 63
)

var emailPattern = regexp.MustCompile(
	"^[-!#$%&'*+/0-9=?A-Z^_a-z`{|}~](\\.?[-!#$%&'*+/0-9=?A-Z^_a-z`{|}~])*" +
		"@[a-zA-Z0-9](-*\\.?[a-zA-Z0-9])*\\.[a-zA-Z](-?[a-zA-Z0-9])+$",
)

// ValidEmail reports whether s has the shape local@domain.tld.
// Display names, quoted local parts and IP literals are rejected.
func ValidEmail(s string) bool {
	if s == "" || len(s) > maxEmailLen {
		return false
	}

	local, domain, ok := strings.Cut(s, "@")
	if !ok || strings.Contains(domain, "@") {
		return false
	}
	if len(local) > maxLocalLen || len(domain) > maxDomainLen {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if len(label) > maxLabelLen {
			return false
		}
	}

	return emailPattern.MatchString(s)
}
