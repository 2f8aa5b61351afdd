package validate

import (
	"testing"

	"github.com/sitebloom/storefront-client/fault"
)

type contact struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func TestCheckReportsFirstFailingFieldByJSONName(t *testing.T) {
	err := Check(contact{Email: "ada@example.com"})
	if err == nil {
		t.Fatal("expected a validation error")
	}

	if fault.KindOf(err) != fault.KindValidation {
		t.Fatalf("expected a validation fault, got %v", fault.KindOf(err))
	}
	field, ok := fault.Field(err)
	if !ok || field != "name" {
		t.Fatalf("expected field name, got %q (ok=%v)", field, ok)
	}
	if got := fault.Message(err); got != "name is a required field" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestCheckEmailFormat(t *testing.T) {
	err := Check(contact{Name: "Ada", Email: "not-an-email"})
	if err == nil {
		t.Fatal("expected a validation error")
	}
	field, _ := fault.Field(err)
	if field != "email" {
		t.Fatalf("expected field email, got %q", field)
	}
}

func TestCheckPasses(t *testing.T) {
	if err := Check(contact{Name: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || a == b {
		t.Fatalf("expected unique non-empty IDs, got %q and %q", a, b)
	}
}
