// Package errs defines the closed error taxonomy for the vectorize
// pipeline, and its mapping to HTTP status codes.
package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNoConceptsExtracted        Kind = "NoConceptsExtracted"
	KindEmbeddingDimensionMismatch Kind = "EmbeddingDimensionMismatch"
	KindURLFetch                   Kind = "UrlFetch"
	KindContentExtraction          Kind = "ContentExtraction"
	KindInvalidRequest             Kind = "InvalidRequest"
	KindModelService               Kind = "ModelService"
	KindStorage                    Kind = "Storage"
	KindCancelled                  Kind = "Cancelled"
)

// StatusClientClosedRequest is the nginx convention for a request that was
// abandoned by the client. net/http has no constant for it.
const StatusClientClosedRequest = 499

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// From classifies err into the taxonomy. Errors that already carry a Kind
// pass through unchanged, context cancellation becomes Cancelled, and
// anything else is wrapped with the given fallback kind and message.
func From(err error, fallback Kind, message string) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(KindCancelled, "request cancelled", err)
	}
	return Wrap(fallback, message, err)
}

// HTTPStatus returns the status code for a kind, per the taxonomy.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNoConceptsExtracted, KindEmbeddingDimensionMismatch, KindURLFetch, KindContentExtraction:
		return http.StatusUnprocessableEntity
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindCancelled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}
