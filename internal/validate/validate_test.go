package validate

import (
	"context"
	"errors"
	"testing"

	"github.com/terrastac/dataplane/internal/codec"
)

func TestNopValidatorReportsNoIssues(t *testing.T) {
	v := NopValidator{}
	issues, err := v.Validate(context.Background(), codec.KindItem, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
}

func TestAsErrorEmpty(t *testing.T) {
	if err := AsError(nil); err != nil {
		t.Fatalf("expected nil error for no issues, got %v", err)
	}
}

func TestAsErrorWrapsIssues(t *testing.T) {
	issues := []Issue{
		{ItemID: "item-1", Kind: codec.KindItem, Message: "missing required property \"datetime\""},
		{ItemID: "item-2", Kind: codec.KindItem, Message: "bbox has wrong cardinality"},
	}
	err := AsError(issues)
	if err == nil {
		t.Fatal("expected a non-nil error")
	}
	var validation *Validation
	if !errors.As(err, &validation) {
		t.Fatalf("expected *Validation, got %T", err)
	}
	if len(validation.Issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(validation.Issues))
	}
	if validation.Error() == "" {
		t.Fatal("expected a non-empty error message")
	}
}

type stubValidator struct {
	issues []Issue
}

func (s stubValidator) Validate(ctx context.Context, kind codec.Kind, v any) ([]Issue, error) {
	return s.issues, nil
}

func TestValidatorSeamIsSwappable(t *testing.T) {
	var v Validator = stubValidator{issues: []Issue{{ItemID: "x", Kind: codec.KindCollection, Message: "bad license"}}}
	issues, err := v.Validate(context.Background(), codec.KindCollection, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
}
