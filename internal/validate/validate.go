// Package validate defines the seam through which a STAC value can be
// checked against its JSON Schema, without this module implementing a
// JSON Schema engine itself (an explicit Non-goal). Callers (cmd/staccli's
// "validate" subcommand, a serving layer that wants strict-mode writes)
// supply a Validator; this package only defines the interface and the
// structured error it reports through.
package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/terrastac/dataplane/internal/codec"
)

// Validator checks a decoded STAC value against its schema and reports
// every violation found, rather than stopping at the first one.
type Validator interface {
	// Validate inspects v (a *stac.Item, *stac.Catalog, *stac.Collection,
	// or *stac.ItemCollection) and returns the issues found, if any. A
	// nil/empty return means v is valid. Validate itself only returns an
	// error for failures unrelated to v's content (schema fetch failure,
	// context cancellation); content problems are reported as issues.
	Validate(ctx context.Context, kind codec.Kind, v any) ([]Issue, error)
}

// Issue describes a single schema violation, scoped to the item (or
// other value) it was found in so a batch validation run can report
// every failure instead of aborting at the first one.
type Issue struct {
	ItemID  string
	Kind    codec.Kind
	Message string
}

// Validation collects every Issue found while validating one or more
// values. It mirrors the structured-variant shape of the reference
// implementation's validation error (item id, kind, and message per
// violation) rather than flattening everything into a single string.
type Validation struct {
	Issues []Issue
}

func (e *Validation) Error() string {
	if len(e.Issues) == 0 {
		return "validate: no issues"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "validate: %d issue(s) found", len(e.Issues))
	for _, issue := range e.Issues {
		fmt.Fprintf(&b, "; %s [%s]: %s", issue.ItemID, issue.Kind, issue.Message)
	}
	return b.String()
}

// AsError wraps issues into a *Validation error, or returns nil when
// issues is empty.
func AsError(issues []Issue) error {
	if len(issues) == 0 {
		return nil
	}
	return &Validation{Issues: issues}
}

// NopValidator is a Validator that reports every value valid. It is the
// zero-dependency default wherever no real JSON Schema engine has been
// wired in — useful for tests and for callers who only want the seam
// without the cost of fetching and compiling schemas.
type NopValidator struct{}

func (NopValidator) Validate(ctx context.Context, kind codec.Kind, v any) ([]Issue, error) {
	return nil, nil
}
