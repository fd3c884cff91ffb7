package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationErrorIsInvalidArgument(t *testing.T) {
	err := fmt.Errorf("create recipe: %w", Field("ingredients", "duplicate ingredient"))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument in chain")
	}
	ve, ok := AsValidation(err)
	if !ok {
		t.Fatalf("AsValidation: expected ok")
	}
	if got := ve.Fields["ingredients"]; len(got) != 1 || got[0] != "duplicate ingredient" {
		t.Fatalf("fields: unexpected %v", ve.Fields)
	}
}

func TestValidationErrorOrNil(t *testing.T) {
	if err := NewValidationError().OrNil(); err != nil {
		t.Fatalf("OrNil on empty: want nil got=%v", err)
	}
	ve := NewValidationError().Add("b", "x").Add("a", "y")
	if ve.OrNil() == nil {
		t.Fatalf("OrNil: want error")
	}
	if ve.Error() != "a: y, b: x" {
		t.Fatalf("Error: got=%q", ve.Error())
	}
}

func TestWithMessageKeepsSentinel(t *testing.T) {
	err := WithMessage(ErrConflict, "Recipe is already in favorites.")
	if err.Error() != "Recipe is already in favorites." {
		t.Fatalf("Error: got=%q", err.Error())
	}
	if !errors.Is(fmt.Errorf("add: %w", err), ErrConflict) {
		t.Fatalf("expected ErrConflict in chain")
	}
}
