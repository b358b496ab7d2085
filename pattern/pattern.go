// Package pattern decides membership of path-like strings in a set of rules,
// where each rule is either a literal or a regular expression.
//
// Two flavours of matching are provided.  Matches is used for payload paths:
// regular expressions are anchored at the start of the candidate only (so a
// directory rule "dir/" covers every file below dir), and literal rules are
// compared as directories.  Selector is used for MIME types: literals must be
// equal and regular expressions must match the whole candidate.
package pattern

import (
	"regexp"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/fspath"
)

// Kind tells how a rule's pattern is interpreted
type Kind int

// Rule kinds
const (
	Literal Kind = iota
	Regex
)

func (k Kind) String() string {
	if k == Regex {
		return "regex"
	}
	return "literal"
}

// Rule is a single literal or regex pattern
type Rule struct {
	Pattern string
	Kind    Kind
	prefix  *regexp.Regexp
	full    *regexp.Regexp
}

// NewLiteral creates a literal rule
func NewLiteral(p string) Rule {
	quoted := regexp.QuoteMeta(p)
	return Rule{
		Pattern: p,
		Kind:    Literal,
		prefix:  regexp.MustCompile("^" + quoted),
		full:    regexp.MustCompile("^" + quoted + "$"),
	}
}

// DirLiteral creates a literal directory rule, which always ends in a solidus
func DirLiteral(p string) Rule {
	return NewLiteral(fspath.AsDir(p))
}

// NewRegex compiles a regex rule.  An invalid expression is a configuration
// error.
func NewRegex(expr string) (Rule, error) {
	prefix, err := regexp.Compile("^(?:" + expr + ")")
	if err != nil {
		return Rule{}, bagval.Configf("invalid regular expression '%s': %s", expr, err)
	}
	full := regexp.MustCompile("^(?:" + expr + ")$")
	return Rule{
		Pattern: expr,
		Kind:    Regex,
		prefix:  prefix,
		full:    full,
	}, nil
}

// DirRegex compiles a regex directory rule; a trailing solidus is appended
// if not already present, so the expression cannot match partial names.
func DirRegex(expr string) (Rule, error) {
	if len(expr) == 0 || expr[len(expr)-1] != '/' {
		expr += "/"
	}
	return NewRegex(expr)
}

// MustRegex is like NewRegex, but panics on invalid expressions
func MustRegex(expr string) Rule {
	r, err := NewRegex(expr)
	if err != nil {
		panic(err)
	}
	return r
}

// AllowAll is the catch-all rule set, matching any path
func AllowAll() []Rule {
	return []Rule{MustRegex(".*")}
}

func (r Rule) prefixMatch(candidate string) bool {
	re := r.prefix
	if re == nil {
		re = r.compile("^")
	}
	return re != nil && re.MatchString(candidate)
}

// MatchFull tells whether the rule matches the whole candidate
func (r Rule) MatchFull(candidate string) bool {
	re := r.full
	if re == nil {
		re = r.compile("$")
	}
	return re != nil && re.MatchString(candidate)
}

// compile handles rules that were not created by one of the constructors
func (r Rule) compile(anchor string) *regexp.Regexp {
	expr := "(?:" + r.Pattern + ")"
	if r.Kind == Literal {
		expr = regexp.QuoteMeta(r.Pattern)
	}
	if anchor == "$" {
		expr += "$"
	}
	re, err := regexp.Compile("^" + expr)
	if err != nil {
		return nil
	}
	return re
}

// Matches tells whether the candidate path matches any of the rules.
//
// The candidate is converted to its solidus delimited form first.  Regex
// rules, and any rule when forceRegex is set, match if they match at the
// start of the candidate.  Literal rules otherwise match if they name the
// same directory as the candidate, ignoring trailing solidi.
func Matches(candidate string, rules []Rule, forceRegex bool) bool {
	candidate = fspath.Slash(candidate)
	for _, r := range rules {
		if forceRegex || r.Kind == Regex {
			if r.prefixMatch(candidate) {
				return true
			}
			continue
		}

		if fspath.TrimDir(r.Pattern) == fspath.TrimDir(candidate) {
			return true
		}
	}
	return false
}
