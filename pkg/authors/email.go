package authors

import (
	"regexp"
	"strings"
)

// emailPattern matches a local part, an @, and either a dotted host with a
// 2-6 letter TLD or an IPv4 literal, optionally followed by :port.
// The host label check (no leading or trailing '-' or '.') is done in IsEmail.
var emailPattern = regexp.MustCompile(
	`(?i)^[-_a-z0-9'+*$^&%=~!?{}]+(?:\.[-_a-z0-9'+*$^&%=~!?{}]+)*` +
		`@(?:([-a-z0-9.]+)\.[a-z]{2,6}|\d{1,3}(?:\.\d{1,3}){3})(?::\d+)?$`)

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool {
	m := emailPattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	host := m[1]
	if host == "" {
		return true
	}
	return !strings.HasPrefix(host, "-") && !strings.HasPrefix(host, ".") &&
		!strings.HasSuffix(host, "-") && !strings.HasSuffix(host, ".")
}

// DisplayName returns realName, or login when realName is blank or an email address.
func DisplayName(realName, login string) string {
	if strings.TrimSpace(realName) == "" || IsEmail(realName) {
		return login
	}
	return realName
}
