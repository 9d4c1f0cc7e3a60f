package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected int
	}{
		{KindNoConceptsExtracted, http.StatusUnprocessableEntity},
		{KindEmbeddingDimensionMismatch, http.StatusUnprocessableEntity},
		{KindURLFetch, http.StatusUnprocessableEntity},
		{KindContentExtraction, http.StatusUnprocessableEntity},
		{KindInvalidRequest, http.StatusBadRequest},
		{KindModelService, http.StatusInternalServerError},
		{KindStorage, http.StatusInternalServerError},
		{KindCancelled, StatusClientClosedRequest},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if actual := HTTPStatus(tt.kind); actual != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, actual)
			}
		})
	}
}

func TestFrom(t *testing.T) {
	t.Run("typed errors pass through", func(t *testing.T) {
		in := New(KindURLFetch, "boom")
		out := From(fmt.Errorf("wrapped: %w", in), KindModelService, "fallback")
		if out.Kind != KindURLFetch {
			t.Errorf("expected kind %s, got %s", KindURLFetch, out.Kind)
		}
	})
	t.Run("context cancellation becomes Cancelled", func(t *testing.T) {
		out := From(fmt.Errorf("call failed: %w", context.Canceled), KindModelService, "fallback")
		if out.Kind != KindCancelled {
			t.Errorf("expected kind %s, got %s", KindCancelled, out.Kind)
		}
	})
	t.Run("unknown errors take the fallback kind", func(t *testing.T) {
		out := From(errors.New("boom"), KindStorage, "repository failed")
		if out.Kind != KindStorage {
			t.Errorf("expected kind %s, got %s", KindStorage, out.Kind)
		}
		if out.Message != "repository failed" {
			t.Errorf("unexpected message %q", out.Message)
		}
	})
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := Wrap(KindStorage, "outer", inner)
	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped error")
	}
}
