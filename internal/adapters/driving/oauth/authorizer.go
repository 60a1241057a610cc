package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/custodia-labs/mediatracker/internal/core/ports/driven"
	"github.com/custodia-labs/mediatracker/internal/logger"
)

// DefaultTimeout bounds how long the user has to complete consent.
const DefaultTimeout = 5 * time.Minute

// Ensure LoopbackAuthorizer implements the interface.
var _ driven.Authorizer = (*LoopbackAuthorizer)(nil)

// LoopbackAuthorizer obtains an authorization code by opening the consent
// page in the browser and receiving the redirect on a local port.
type LoopbackAuthorizer struct {
	// Out receives the consent URL so the user can open it by hand.
	Out io.Writer
	// Open launches the browser. Defaults to OpenBrowser.
	Open func(url string) error
	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration

	log logger.Component
}

// NewLoopbackAuthorizer creates an authorizer printing to out.
func NewLoopbackAuthorizer(out io.Writer) *LoopbackAuthorizer {
	return &LoopbackAuthorizer{
		Out:     out,
		Open:    OpenBrowser,
		Timeout: DefaultTimeout,
		log:     logger.For("oauth"),
	}
}

// Authorize listens on a free loopback port, sends the user to the consent
// page and waits for the redirect.
func (a *LoopbackAuthorizer) Authorize(
	ctx context.Context, buildURL func(redirectURI, state string) string,
) (string, string, error) {
	state, err := newState()
	if err != nil {
		return "", "", err
	}

	receiver, err := Listen(state)
	if err != nil {
		return "", "", err
	}
	defer func() {
		if err := receiver.Close(); err != nil {
			a.log.Debug("close redirect receiver: %v", err)
		}
	}()

	redirectURI := receiver.RedirectURI()
	consentURL := buildURL(redirectURI, state)

	if a.Out != nil {
		_, _ = fmt.Fprintf(a.Out, "Opening your browser to authorise Google Drive access.\n"+
			"If it does not open, visit:\n\n  %s\n\n", consentURL)
	}
	if a.Open != nil {
		if err := a.Open(consentURL); err != nil {
			a.log.Warn("open browser: %v", err)
		}
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	code, err := receiver.Wait(ctx, timeout)
	if err != nil {
		return "", "", err
	}
	return code, redirectURI, nil
}

// newState returns a random CSRF state value.
func newState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
