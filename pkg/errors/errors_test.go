package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := []struct {
		code       Code
		wantStatus int
		retryable  bool
	}{
		{CodeEmptyOrder, http.StatusBadRequest, false},
		{CodeItemUnavailable, http.StatusUnprocessableEntity, false},
		{CodeInvalidTransition, http.StatusUnprocessableEntity, false},
		{CodeConflict, http.StatusConflict, true},
		{CodeInvalidRange, http.StatusBadRequest, false},
		{CodeForbidden, http.StatusForbidden, false},
	}
	for _, tc := range cases {
		meta := MetadataFor(tc.code)
		if meta.HTTPStatus != tc.wantStatus {
			t.Errorf("%s: status = %d, want %d", tc.code, meta.HTTPStatus, tc.wantStatus)
		}
		if meta.Retryable != tc.retryable {
			t.Errorf("%s: retryable = %v, want %v", tc.code, meta.Retryable, tc.retryable)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown code status = %d, want 500", meta.HTTPStatus)
	}
}

func TestAsUnwrapsWrappedError(t *testing.T) {
	base := New(CodeConflict, "order changed underneath us")
	wrapped := fmt.Errorf("outer: %w", base)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeConflict {
		t.Fatalf("code = %s, want %s", typed.Code(), CodeConflict)
	}
}

func TestIsCode(t *testing.T) {
	err := Wrap(CodeItemUnavailable, fmt.Errorf("boom"), "item sold out")
	if !IsCode(err, CodeItemUnavailable) {
		t.Fatal("expected IsCode to match")
	}
	if IsCode(err, CodeConflict) {
		t.Fatal("expected IsCode mismatch")
	}
	if IsCode(nil, CodeConflict) {
		t.Fatal("nil error should not match")
	}
}

func TestWrapNilBehavesLikeNew(t *testing.T) {
	err := Wrap(CodeEmptyOrder, nil, "no lines")
	if err.Unwrap() != nil {
		t.Fatal("expected no cause")
	}
	if err.Error() != "EMPTY_ORDER: no lines" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}
