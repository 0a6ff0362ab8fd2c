package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestErrorIncludesInternal(t *testing.T) {
	internal := stdErrors.New("boom")
	err := Wrap(internal, "failed")

	if err.Error() != "failed: boom" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
	if !stdErrors.Is(err, internal) {
		t.Fatal("expected wrapped error to unwrap to internal")
	}
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", 400)
	with := base.WithInternal(stdErrors.New("oops"))

	if with == base {
		t.Fatal("expected WithInternal to return a copy")
	}
	if base.Internal != nil {
		t.Fatal("expected original error to remain unchanged")
	}
	if with.Internal == nil {
		t.Fatal("expected internal error to be set")
	}
}

func TestWithFieldsCopies(t *testing.T) {
	with := ErrValidation.WithFields(map[string][]string{"phone": {"required"}})
	if ErrValidation.Fields != nil {
		t.Fatal("expected sentinel to remain untouched")
	}
	if len(with.Fields["phone"]) != 1 {
		t.Fatalf("unexpected fields: %#v", with.Fields)
	}
}

func TestFromError(t *testing.T) {
	appErr := ErrNotFound
	if out := FromError(appErr); out != appErr {
		t.Fatal("expected FromError to return the same AppError instance")
	}

	raw := stdErrors.New("raw")
	out := FromError(raw)
	if out.Code != ErrInternalServer.Code {
		t.Fatalf("expected internal server code, got %s", out.Code)
	}
	if out.Internal == nil {
		t.Fatal("expected internal error to be attached")
	}
}

func TestNewValidation(t *testing.T) {
	err := NewValidation("", map[string][]string{"org": {"not allowed"}})
	if err.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status: %d", err.StatusCode)
	}
	if err.Message != ErrValidation.Message {
		t.Fatalf("expected default message, got %q", err.Message)
	}
	if err.Fields["org"][0] != "not allowed" {
		t.Fatalf("unexpected fields: %#v", err.Fields)
	}
}

func TestIsMatchesByCode(t *testing.T) {
	copied := ErrValidation.WithFields(map[string][]string{"phone": {"required"}})
	if !stdErrors.Is(copied, ErrValidation) {
		t.Fatal("expected copy to match its sentinel")
	}
	if !stdErrors.Is(NewBadRequest("bad filter"), ErrBadRequest) {
		t.Fatal("expected NewBadRequest to match ErrBadRequest")
	}
	if stdErrors.Is(ErrNotFound, ErrForbidden) {
		t.Fatal("different codes must not match")
	}
	if stdErrors.Is(ErrNotFound, stdErrors.New("NOT_FOUND")) {
		t.Fatal("plain errors must not match")
	}
}

func TestWithMessageCopies(t *testing.T) {
	with := ErrBadRequest.WithMessage("missing o:setting")
	if ErrBadRequest.Message != "Invalid request" || with.Message != "missing o:setting" {
		t.Fatalf("unexpected messages: %q %q", ErrBadRequest.Message, with.Message)
	}
	if with.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", with.StatusCode)
	}
}
