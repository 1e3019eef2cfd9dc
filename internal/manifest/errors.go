package manifest

import (
	"fmt"
	"strings"

	"github.com/stuttgart-things/repofleet/internal/labels"
)

// IOError is returned when a manifest file cannot be read
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("could not read repos manifest %q: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError is returned when a manifest file is not valid JSON
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("repos manifest %q is not valid JSON: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError is returned for a manifest or repository record that does not
// follow the manifest schema. Attributes lists unexpected record keys.
type SchemaError struct {
	Path       string
	Repo       string
	Attributes []string
	Reason     string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "repos manifest %q", e.Path)
	if e.Repo != "" {
		fmt.Fprintf(&b, ", repo %q", e.Repo)
	}
	if len(e.Attributes) > 0 {
		fmt.Fprintf(&b, ": unexpected attributes \"%s\"", strings.Join(e.Attributes, `", "`))
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	return b.String()
}

// ConflictError is returned when two declarations of one repository give the
// same label different values.
type ConflictError struct {
	Repo     string
	Key      string
	Existing labels.Value
	Incoming labels.Value
	Manifest string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting label %q for repo %q: %s vs %s (from manifest %q)",
		e.Key, e.Repo, quoteValue(e.Existing), quoteValue(e.Incoming), e.Manifest)
}

func quoteValue(v labels.Value) string {
	if v.Kind() == labels.KindString {
		return fmt.Sprintf("%q", v.String())
	}
	return v.String()
}
