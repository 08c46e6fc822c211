package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/tarkovhub/overlay/pkg/errors"
)

func TestNotFoundError(t *testing.T) {
	err := &errors.NotFoundError{Resource: "task", ID: "5936d90786f7742b1420ba5b"}

	if !errors.IsNotFound(err) {
		t.Error("NotFoundError should match ErrNotFound")
	}
	want := "task with ID 5936d90786f7742b1420ba5b not found"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  *errors.ValidationError
		want string
	}{
		{
			name: "with file and field",
			err:  &errors.ValidationError{File: "tasks.json5", Field: "minPlayerLevel", Message: "must be a number"},
			want: "validation failed in tasks.json5 for field minPlayerLevel: must be a number",
		},
		{
			name: "field only",
			err:  &errors.ValidationError{Field: "experience", Message: "negative"},
			want: "validation failed for field experience: negative",
		},
		{
			name: "message only",
			err:  &errors.ValidationError{Message: "empty document"},
			want: "validation failed: empty document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.IsValidation(tt.err) {
				t.Error("ValidationError should match ErrInvalidInput")
			}
		})
	}
}

func TestParseErrorUnwrap(t *testing.T) {
	cause := stderrors.New("unexpected token")
	err := errors.WrapParse("json5", "dogtags.json5", cause)

	if !stderrors.Is(err, cause) {
		t.Error("WrapParse should preserve the cause for errors.Is")
	}

	var pe *errors.ParseError
	if !stderrors.As(err, &pe) {
		t.Fatal("expected a *ParseError")
	}
	if pe.File != "dogtags.json5" || pe.Format != "json5" {
		t.Errorf("unexpected fields: %+v", pe)
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if errors.WrapParse("json", "x", nil) != nil {
		t.Error("WrapParse(nil) should return nil")
	}
	if errors.WrapIO("read", "x", nil) != nil {
		t.Error("WrapIO(nil) should return nil")
	}
}

func TestAPIErrorSourceUnavailable(t *testing.T) {
	err := &errors.APIError{Endpoint: "https://api.tarkov.dev/graphql", StatusCode: 503, Message: "upstream down"}
	if !stderrors.Is(err, errors.ErrSourceUnavailable) {
		t.Error("5xx APIError should match ErrSourceUnavailable")
	}

	clientErr := &errors.APIError{Endpoint: "https://api.tarkov.dev/graphql", StatusCode: 400, Message: "bad query"}
	if stderrors.Is(clientErr, errors.ErrSourceUnavailable) {
		t.Error("4xx APIError should not match ErrSourceUnavailable")
	}
}

func TestWrappedChains(t *testing.T) {
	inner := &errors.NotFoundError{Resource: "edition", ID: "eod"}
	wrapped := fmt.Errorf("loading overlay: %w", inner)

	if !errors.IsNotFound(wrapped) {
		t.Error("wrapped NotFoundError should still match ErrNotFound")
	}
}
