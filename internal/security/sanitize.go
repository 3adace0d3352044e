package security

import (
	"net/url"
	"regexp"
	"strings"
)

type redaction struct {
	pattern     *regexp.Regexp
	replacement string
}

// redactions are applied in order; all patterns are case-insensitive.
var redactions = []redaction{
	{regexp.MustCompile(`(?i)sk-[a-z0-9]{20,}`), "[API_KEY_REDACTED]"},
	{regexp.MustCompile(`(?i)api[_-]?key["']?\s*[:=]\s*["']?[a-z0-9_-]+`), "api_key=[REDACTED]"},
	{regexp.MustCompile(`(?i)password["']?\s*[:=]\s*["']?[^\s"']+`), "password=[REDACTED]"},
	{regexp.MustCompile(`(?i)pwd["']?\s*[:=]\s*["']?[^\s"']+`), "pwd=[REDACTED]"},
	{regexp.MustCompile(`(?i)token["']?\s*[:=]\s*["']?[a-z0-9_-]{20,}`), "token=[REDACTED]"},
	{regexp.MustCompile(`(?i)bearer\s+[a-z0-9_-]+`), "bearer [REDACTED]"},
	{regexp.MustCompile(`(?i)([a-z0-9._%+-]+)@[a-z0-9.-]+\.[a-z]{2,}`), "${1}@[REDACTED]"},
}

// SanitizeForLogging redacts API keys, password and token assignments, bearer
// credentials and email domains. Text with nothing to redact is returned as is.
func SanitizeForLogging(text string) string {
	if text == "" {
		return text
	}

	for _, r := range redactions {
		text = r.pattern.ReplaceAllString(text, r.replacement)
	}
	return text
}

// urlUserinfo matches the userinfo of a URL that net/url refuses to parse.
var urlUserinfo = regexp.MustCompile(`(?i)\b([a-z][a-z0-9+.-]*://)[^/?#@]*@`)

// RedactURL returns raw with any userinfo password replaced by "xxxxx", for
// logs and error messages. URLs that do not parse have their whole userinfo
// masked.
func RedactURL(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return urlUserinfo.ReplaceAllString(raw, "${1}xxxxx@")
	}
	if u.User == nil {
		return raw
	}
	return u.Redacted()
}

var headerControlChars = strings.NewReplacer(
	"\n", " ",
	"\r", " ",
	"\x00", " ",
	"\x0b", " ",
	"\x0c", " ",
)

// SanitizeHeaderField makes user-controlled text safe for an email header or a
// file name: control characters become spaces, space runs collapse, and the
// result is trimmed. The function is idempotent.
func SanitizeHeaderField(text string) string {
	if text == "" {
		return ""
	}

	sanitized := headerControlChars.Replace(text)
	for strings.Contains(sanitized, "  ") {
		sanitized = strings.ReplaceAll(sanitized, "  ", " ")
	}
	return strings.TrimSpace(sanitized)
}
