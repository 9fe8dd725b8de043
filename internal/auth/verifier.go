// Package auth validates bearer credentials against an external identity
// provider. The service never issues or decodes tokens itself; it only
// accepts or rejects based on the collaborator's answer.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrInvalidToken is returned for a missing, empty or rejected credential.
var ErrInvalidToken = errors.New("invalid or missing token")

// Principal is the authenticated caller as reported by the identity service.
type Principal struct {
	Subject string `json:"sub"`
}

// Verifier checks a bearer token and returns the principal it belongs to.
type Verifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

// StaticVerifier accepts any non-empty token. It is the fallback for
// deployments without a reachable identity service.
type StaticVerifier struct{}

// Verify implements Verifier.
func (StaticVerifier) Verify(_ context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrInvalidToken
	}
	return Principal{Subject: "anonymous"}, nil
}

// RemoteVerifier delegates token checks to an external identity service over
// HTTP. Any non-2xx answer is treated as a rejection; the verifier fails
// closed.
type RemoteVerifier struct {
	client *resty.Client
	logger *zap.Logger
}

var _ Verifier = (*RemoteVerifier)(nil)

// NewRemoteVerifier creates a verifier that POSTs to verifyURL with the
// caller's bearer token.
func NewRemoteVerifier(verifyURL string, timeout time.Duration, logger *zap.Logger) *RemoteVerifier {
	client := resty.New().
		SetBaseURL(verifyURL).
		SetTimeout(timeout)
	return &RemoteVerifier{client: client, logger: logger}
}

// Verify implements Verifier.
func (v *RemoteVerifier) Verify(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrInvalidToken
	}

	var principal Principal
	resp, err := v.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&principal).
		Post("")
	if err != nil {
		v.logger.Warn("Identity service unreachable", zap.Error(err))
		return Principal{}, fmt.Errorf("failed to verify token: %w", err)
	}
	if resp.IsError() {
		return Principal{}, ErrInvalidToken
	}
	return principal, nil
}
