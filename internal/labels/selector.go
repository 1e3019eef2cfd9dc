package labels

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/gobwas/glob"
)

// Op is the test a selector applies to a label
type Op string

const (
	OpTruthy   Op = "truthy"
	OpFalsey   Op = "falsey"
	OpEqual    Op = "="
	OpNotEqual Op = "!="
)

var keyRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9\-_.]*`)

// SyntaxError reports a label selector that could not be parsed
type SyntaxError struct {
	Selector string
	Reason   string
}

func (e *SyntaxError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid label selector: %q", e.Selector)
	}
	return fmt.Sprintf("invalid label selector, %s: %q", e.Reason, e.Selector)
}

// Selector is a parsed label selector such as `triton`, `!deprecated`,
// `lang=js` or `tritonservice!=img*`.
type Selector struct {
	Op    Op
	Key   string
	Value Value // only set for OpEqual and OpNotEqual

	raw     string
	literal string
	pattern glob.Glob
}

// ParseSelector parses the selector grammar:
//
//	!KEY          key is missing or falsey
//	KEY           key is present and truthy
//	KEY=VALUE     value matches (globbing supported)
//	KEY!=VALUE    key is missing or value does not match
//
// VALUE is coerced to a number when it parses as one and to a bool for
// `true` and `false`.
func ParseSelector(raw string) (Selector, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Selector{}, &SyntaxError{Selector: raw, Reason: "selector is empty"}
	}

	if s[0] == '!' {
		s = strings.TrimLeftFunc(s[1:], unicode.IsSpace)
		key := keyRE.FindString(s)
		if key == "" {
			return Selector{}, &SyntaxError{Selector: raw}
		}
		if key != s {
			return Selector{}, &SyntaxError{
				Selector: raw,
				Reason:   fmt.Sprintf("leftover %q", s[len(key):]),
			}
		}
		return Selector{Op: OpFalsey, Key: key, raw: raw}, nil
	}

	key := keyRE.FindString(s)
	if key == "" {
		return Selector{}, &SyntaxError{Selector: raw}
	}
	rest := strings.TrimLeftFunc(s[len(key):], unicode.IsSpace)
	if rest == "" {
		return Selector{Op: OpTruthy, Key: key, raw: raw}, nil
	}

	var op Op
	switch {
	case strings.HasPrefix(rest, "!="):
		op = OpNotEqual
	case strings.HasPrefix(rest, "="):
		op = OpEqual
	default:
		return Selector{}, &SyntaxError{
			Selector: raw,
			Reason:   fmt.Sprintf("could not match operator at %q", rest),
		}
	}
	literal := strings.TrimLeftFunc(rest[len(op):], unicode.IsSpace)
	if literal == "" {
		return Selector{}, &SyntaxError{Selector: raw, Reason: "value is empty"}
	}

	pattern, err := CompileGlob(literal)
	if err != nil {
		return Selector{}, &SyntaxError{
			Selector: raw,
			Reason:   fmt.Sprintf("bad value pattern %q: %v", literal, err),
		}
	}

	return Selector{
		Op:      op,
		Key:     key,
		Value:   coerceLiteral(literal),
		raw:     raw,
		literal: literal,
		pattern: pattern,
	}, nil
}

func coerceLiteral(s string) Value {
	if n, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(n) {
		return Number(n)
	}
	switch s {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	return String(s)
}

// Raw returns the selector text as given to ParseSelector
func (s Selector) Raw() string { return s.raw }

func (s Selector) String() string {
	switch s.Op {
	case OpTruthy:
		return s.Key
	case OpFalsey:
		return "!" + s.Key
	default:
		return s.Key + string(s.Op) + s.literal
	}
}

// Matches reports whether the labels satisfy the selector. A missing key is
// falsey, never equal and always not-equal.
func (s Selector) Matches(set Set) bool {
	v, ok := set[s.Key]
	switch s.Op {
	case OpTruthy:
		return ok && v.Truthy()
	case OpFalsey:
		return !ok || !v.Truthy()
	case OpEqual:
		return ok && s.matchValue(v)
	case OpNotEqual:
		return !ok || !s.matchValue(v)
	}
	return false
}

// matchValue compares typed literals by value and otherwise globs the
// literal against the stored value's text form.
func (s Selector) matchValue(v Value) bool {
	if s.Value.Kind() != KindString && s.Value.Equal(v) {
		return true
	}
	if s.pattern == nil {
		return false
	}
	return s.pattern.Match(v.String())
}
