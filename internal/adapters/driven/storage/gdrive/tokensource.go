package gdrive

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driven"
	"github.com/custodia-labs/mediatracker/internal/logger"
)

// persistingTokenSource writes refreshed tokens back to the token store so
// a later session can reuse them.
type persistingTokenSource struct {
	base    oauth2.TokenSource
	store   driven.TokenStore
	account string
	onSave  func(*domain.RemoteCredentials)
	log     logger.Component

	mu   sync.Mutex
	last string
}

func newPersistingTokenSource(
	base oauth2.TokenSource, store driven.TokenStore, creds *domain.RemoteCredentials,
	onSave func(*domain.RemoteCredentials),
) *persistingTokenSource {
	return &persistingTokenSource{
		base:    base,
		store:   store,
		account: creds.AccountIdentifier,
		onSave:  onSave,
		log:     logger.For("gdrive"),
		last:    creds.AccessToken,
	}
}

// Token implements oauth2.TokenSource.
func (t *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := t.base.Token()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if tok.AccessToken == t.last {
		return tok, nil
	}
	t.last = tok.AccessToken

	creds := credentialsFromToken(tok, t.account)
	// Refresh requests don't have a caller context; the save is short.
	if err := t.store.SaveCredentials(context.Background(), *creds); err != nil {
		t.log.Warn("persist refreshed token: %v", err)
	} else {
		t.log.Debug("persisted refreshed token (expires %s)", tok.Expiry.Format(time.RFC3339))
	}
	if t.onSave != nil {
		t.onSave(creds)
	}
	return tok, nil
}

func credentialsFromToken(tok *oauth2.Token, account string) *domain.RemoteCredentials {
	return &domain.RemoteCredentials{
		AccountIdentifier: account,
		AccessToken:       tok.AccessToken,
		RefreshToken:      tok.RefreshToken,
		TokenType:         tok.TokenType,
		Expiry:            tok.Expiry,
		UpdatedAt:         time.Now(),
	}
}

func tokenFromCredentials(creds *domain.RemoteCredentials) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    creds.TokenType,
		Expiry:       creds.Expiry,
	}
}
