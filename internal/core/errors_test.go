package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		is   []error
		not  []error
		kind string
	}{
		{"validation", Invalid("bad"), []error{ErrValidation}, []error{ErrConflict, ErrNotFound}, "validation"},
		{"conflict", Conflict("createMember", "dup"), []error{ErrConflict}, []error{ErrNotFound, ErrBackend}, "conflict"},
		{"not found", NotFound("updateMember", "gone"), []error{ErrNotFound}, []error{ErrInconsistent}, "not_found"},
		{"inconsistent", Inconsistent("createMember", "lost"), []error{ErrInconsistent, ErrNotFound}, []error{ErrBackend}, "inconsistent"},
		{"backend", Backend("listMembers", errors.New("boom")), []error{ErrBackend}, []error{ErrNotFound}, "backend"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tc.err)
			for _, target := range tc.is {
				if !errors.Is(wrapped, target) {
					t.Errorf("expected errors.Is(%v, %v)", tc.err, target)
				}
			}
			for _, target := range tc.not {
				if errors.Is(wrapped, target) {
					t.Errorf("did not expect errors.Is(%v, %v)", tc.err, target)
				}
			}
			if got := Kind(wrapped); got != tc.kind {
				t.Errorf("Kind() = %q, want %q", got, tc.kind)
			}
		})
	}
}

func TestBackendKeepsOpAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Backend("recordEvent", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved")
	}
	if err.Error() != "recordEvent: backend failure: disk full" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if PublicMessage(err) != `Backend error during "recordEvent".` {
		t.Fatalf("PublicMessage() = %q", PublicMessage(err))
	}
	if Backend("x", nil) != nil {
		t.Fatalf("expected nil for nil cause")
	}
	conflict := Conflict("createMember", "dup")
	if Backend("other", conflict) != conflict {
		t.Fatalf("expected tagged errors to pass through")
	}
}
