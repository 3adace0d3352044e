package ratelimit

import (
	"strings"
	"time"
)

// Rule is the limit for keys matching Pattern. A pattern starting with "."
// matches that domain suffix (".greenhouse.io" matches "boards.greenhouse.io");
// any other pattern must equal the key.
type Rule struct {
	Pattern string
	Limit   int           // Maximum requests per window; <= 0 means unlimited
	Window  time.Duration // Time window
	Burst   int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	DefaultLimit    int
	DefaultWindow   time.Duration
	DefaultBurst    int
	CleanupInterval time.Duration
	Rules           []Rule
}

// DefaultConfig is unlimited unless rules say otherwise.
func DefaultConfig() *Config {
	return &Config{
		DefaultLimit:    0,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// PerMinute returns a config allowing limit requests per minute per key, with
// no burst beyond one request.
func PerMinute(limit int) *Config {
	return &Config{
		DefaultLimit:    limit,
		DefaultWindow:   time.Minute,
		DefaultBurst:    1,
		CleanupInterval: 5 * time.Minute,
	}
}

// ruleFor returns the first exact match, then the first domain-suffix match,
// then the defaults.
func (c *Config) ruleFor(key string) Rule {
	if r := MatchRule(key, c.Rules); r != nil {
		return *r
	}
	return Rule{
		Limit:  c.DefaultLimit,
		Window: c.DefaultWindow,
		Burst:  c.DefaultBurst,
	}
}

// MatchRule returns the rule for key or nil if none matches.
func MatchRule(key string, rules []Rule) *Rule {
	key = strings.ToLower(key)

	for i := range rules {
		if strings.ToLower(rules[i].Pattern) == key {
			return &rules[i]
		}
	}

	for i := range rules {
		pattern := strings.ToLower(rules[i].Pattern)
		if strings.HasPrefix(pattern, ".") && strings.HasSuffix(key, pattern) {
			return &rules[i]
		}
	}

	return nil
}
