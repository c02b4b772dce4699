package unwind

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultClassPattern matches a bare or namespaced PHP class name, with
// an optional leading separator: RuntimeException, \App\Errors\Custom.
const DefaultClassPattern = `^\\?[A-Za-z_][A-Za-z0-9_]*(\\[A-Za-z_][A-Za-z0-9_]*)*$`

// DefaultClassSuffixes are the name endings that mark a bare string as
// an exception class.
var DefaultClassSuffixes = []string{"Exception", "Error"}

// ClassNamePolicy decides whether a string passed to toThrow() names an
// exception class or is an expected message.
//
// A string is a class name only when it matches Pattern and also either
// contains a namespace separator or ends with one of Suffixes. Suffix
// matching alone would take "Caught a RuntimeException" for a class.
type ClassNamePolicy struct {
	Pattern  *regexp.Regexp
	Suffixes []string
}

// DefaultClassNamePolicy returns the policy used when none is configured.
func DefaultClassNamePolicy() ClassNamePolicy {
	return ClassNamePolicy{
		Pattern:  regexp.MustCompile(DefaultClassPattern),
		Suffixes: append([]string(nil), DefaultClassSuffixes...),
	}
}

// NewClassNamePolicy compiles a policy from configuration values. Empty
// values fall back to the defaults.
func NewClassNamePolicy(pattern string, suffixes []string) (ClassNamePolicy, error) {
	p := DefaultClassNamePolicy()
	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return ClassNamePolicy{}, fmt.Errorf("compiling class name pattern: %w", err)
		}
		p.Pattern = re
	}
	if len(suffixes) > 0 {
		p.Suffixes = append([]string(nil), suffixes...)
	}
	return p, nil
}

// IsClassName applies the policy to s.
func (p ClassNamePolicy) IsClassName(s string) bool {
	if p.Pattern == nil || !p.Pattern.MatchString(s) {
		return false
	}
	if strings.Contains(s, `\`) {
		return true
	}
	for _, suffix := range p.Suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
