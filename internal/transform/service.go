// Package transform sends a transformation request to the reasoning service
// and returns its candidate scene revision. The service is an untrusted,
// non-deterministic black box behind a single-method interface, so tests can
// swap in a deterministic stub.
package transform

import (
	"context"

	"github.com/scenekit/resize/internal/request"
	"github.com/scenekit/resize/internal/scene"
	"github.com/scenekit/resize/internal/shared/id"
)

// Candidate is the untrusted output of one service call. Document is nil
// when the response body did not decode as a scene document; DecodeErr then
// carries the reason. Either way the candidate goes to the validator, which
// decides accept, repair, or reject — a malformed document is a validation
// finding, not a transport failure, and is never retried here.
type Candidate struct {
	Document  *scene.Document
	Raw       []byte
	DecodeErr error
	Attempt   id.AttemptID
}

// Service is the narrow capability the pipeline depends on.
type Service interface {
	Transform(ctx context.Context, req *request.Request) (*Candidate, error)
}
