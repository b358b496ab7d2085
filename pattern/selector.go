package pattern

import (
	"fmt"
	"strings"

	"github.com/birkland/bagval"
)

// Selector decides which MIME types a format plugin applies to.  It is either
// a list of literal types, or a single regular expression that must match the
// whole type.  Identified types are lowercase, so literal types are lowercased
// too, and a regex should be written for lowercase types.
type Selector struct {
	rules []Rule
	regex bool
}

// NewSelector creates a selector from a list of literal types
func NewSelector(types ...string) Selector {
	rules := make([]Rule, 0, len(types))
	for _, t := range types {
		rules = append(rules, NewLiteral(strings.ToLower(t)))
	}
	return Selector{rules: rules}
}

// RegexSelector creates a selector from a regular expression
func RegexSelector(expr string) (Selector, error) {
	r, err := NewRegex(expr)
	if err != nil {
		return Selector{}, err
	}
	return Selector{rules: []Rule{r}, regex: true}, nil
}

// MustRegexSelector is like RegexSelector, but panics on a malformed
// expression
func MustRegexSelector(expr string) Selector {
	s, err := RegexSelector(expr)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseSelector creates a selector from loosely typed configuration data,
// detecting its kind from its shape: a string is a regex, and a list of
// strings is a list of literal types.  Anything else is a configuration
// error.
func ParseSelector(v interface{}) (Selector, error) {
	switch s := v.(type) {
	case Selector:
		return s, nil
	case string:
		return RegexSelector(s)
	case []string:
		return NewSelector(s...), nil
	case []interface{}:
		types := make([]string, 0, len(s))
		for _, item := range s {
			t, ok := item.(string)
			if !ok {
				return Selector{}, bagval.Configf("unknown type selector entry %v (%T), expected a string", item, item)
			}
			types = append(types, t)
		}
		return NewSelector(types...), nil
	default:
		return Selector{}, bagval.Configf("unknown type selector %v (%T), expected a regex or a list of types", v, v)
	}
}

// Match tells whether the given MIME type is selected
func (s Selector) Match(mimeType string) bool {
	for _, r := range s.rules {
		if r.MatchFull(mimeType) {
			return true
		}
	}
	return false
}

// IsRegex tells whether this is a regex selector
func (s Selector) IsRegex() bool {
	return s.regex
}

// Types lists the literal types of a list selector
func (s Selector) Types() []string {
	if s.regex {
		return nil
	}
	types := make([]string, 0, len(s.rules))
	for _, r := range s.rules {
		types = append(types, r.Pattern)
	}
	return types
}

func (s Selector) String() string {
	if s.regex {
		return fmt.Sprintf("file type regex '%s'", s.rules[0].Pattern)
	}
	return fmt.Sprintf("list of types '[%s]'", strings.Join(s.Types(), ", "))
}
