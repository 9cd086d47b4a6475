package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusByKind(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Validation("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Forbidden("x"), http.StatusForbidden},
		{Upstream("x", errors.New("boom")), http.StatusBadGateway},
	}
	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Fatalf("kind %d: expected %d, got %d", tc.err.Kind, tc.want, got)
		}
	}
}

func TestIsFindsWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("dispatch: %w", Conflict("already responded"))
	if !Is(wrapped, KindConflict) {
		t.Fatal("expected wrapped conflict to be detected")
	}
	if Is(errors.New("plain"), KindConflict) {
		t.Fatal("expected plain error to have unknown kind")
	}
}
