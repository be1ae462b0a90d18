package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/maikmano/zentask/domain"
)

// AuthError is an authentication failure meant for inline display. It is
// never retried automatically; the user re-triggers the operation.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// Provider exchanges credentials for identity tokens at the hosted provider.
type Provider struct {
	signInURL string
	signUpURL string
	httpc     *http.Client
	verifier  *Verifier
}

// NewProvider creates a Provider using the given endpoints.
func NewProvider(signInURL, signUpURL string, verifier *Verifier) *Provider {
	return &Provider{
		signInURL: signInURL,
		signUpURL: signUpURL,
		httpc:     &http.Client{Timeout: 30 * time.Second},
		verifier:  verifier,
	}
}

type credentialRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
	Error string `json:"error,omitempty"`
}

// SignIn exchanges credentials for an identity.
func (p *Provider) SignIn(ctx context.Context, email, password string) (domain.Identity, error) {
	return p.exchange(ctx, p.signInURL, email, password)
}

// SignUp registers a new account and returns its identity.
func (p *Provider) SignUp(ctx context.Context, email, password string) (domain.Identity, error) {
	return p.exchange(ctx, p.signUpURL, email, password)
}

func (p *Provider) exchange(ctx context.Context, url, email, password string) (domain.Identity, error) {
	body, err := json.Marshal(credentialRequest{Email: email, Password: password})
	if err != nil {
		return domain.Identity{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.Identity{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpc.Do(req)
	if err != nil {
		log.Errorf("credential exchange: %v", err)
		return domain.Identity{}, &AuthError{Message: "unable to reach the identity provider"}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return domain.Identity{}, &AuthError{Message: "unable to read provider response"}
	}

	var tr tokenResponse
	if err := json.Unmarshal(data, &tr); err != nil && resp.StatusCode == http.StatusOK {
		return domain.Identity{}, &AuthError{Message: "malformed provider response"}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		msg := tr.Error
		if msg == "" {
			msg = "invalid email or password"
		}
		return domain.Identity{}, &AuthError{Message: msg}
	default:
		log.Errorf("credential exchange: unexpected status %d", resp.StatusCode)
		return domain.Identity{}, fmt.Errorf("identity provider unavailable: status %d", resp.StatusCode)
	}

	id, err := p.verifier.Verify(tr.Token)
	if err != nil {
		log.Errorf("verify issued token: %v", err)
		return domain.Identity{}, &AuthError{Message: "invalid token from provider"}
	}
	return id, nil
}
