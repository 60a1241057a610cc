package gdrive

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driven"
	"github.com/custodia-labs/mediatracker/internal/logger"
)

// Ensure Adapter implements the interfaces.
var (
	_ driven.StorageAdapter = (*Adapter)(nil)
	_ driven.HandleResolver = (*Adapter)(nil)
)

// Adapter stores files in a Google Drive folder.
type Adapter struct {
	settings   domain.DriveSettings
	tokens     driven.TokenStore
	authorizer driven.Authorizer
	throttle   *throttle
	log        logger.Component

	// endpoint and newFiles are replaced in tests.
	endpoint oauth2.Endpoint
	newFiles func(ctx context.Context, ts oauth2.TokenSource) (filesAPI, error)

	// authMu serialises consent flows.
	authMu sync.Mutex

	mu    sync.RWMutex
	creds *domain.RemoteCredentials
	files filesAPI
	root  *FolderHandle
}

// New creates a Drive adapter. The authorizer may be nil, in which case
// stored credentials are used but never (re)obtained.
func New(settings domain.DriveSettings, tokens driven.TokenStore, authorizer driven.Authorizer) *Adapter {
	if settings.FolderName == "" {
		settings.FolderName = domain.DefaultDriveFolderName
	}
	return &Adapter{
		settings:   settings,
		tokens:     tokens,
		authorizer: authorizer,
		throttle:   newThrottle(requestsPerSecond, requestBurst),
		log:        logger.For("gdrive"),
		endpoint:   google.Endpoint,
		newFiles:   newDriveFiles,
	}
}

// Kind returns domain.HandleKindRemote.
func (a *Adapter) Kind() domain.HandleKind {
	return domain.HandleKindRemote
}

// Initialize checks the OAuth client settings and loads stored credentials.
// It never prompts.
func (a *Adapter) Initialize(ctx context.Context) error {
	if !a.settings.IsConfigured() {
		return fmt.Errorf("%w: drive client id and secret are not configured", domain.ErrInvalidInput)
	}

	creds, err := a.tokens.GetCredentials(ctx)
	if err != nil {
		return fmt.Errorf("load drive credentials: %w", err)
	}

	a.mu.Lock()
	a.creds = creds
	a.mu.Unlock()
	return nil
}

// SelectStorage authorises if needed, then finds or creates the storage
// folder in "My Drive".
func (a *Adapter) SelectStorage(ctx context.Context) (domain.StorageHandle, error) {
	if err := a.Initialize(ctx); err != nil {
		return nil, err
	}

	if !a.currentCreds().IsUsable() {
		if a.authorizer == nil {
			return nil, domain.ErrAuthRequired
		}
		if err := a.authorize(ctx); err != nil {
			return nil, err
		}
	}

	files, err := a.client(ctx)
	if err != nil {
		return nil, err
	}

	folder, err := a.findOrCreateFolder(ctx, files, rootFolderID, a.settings.FolderName)
	if err != nil {
		return nil, err
	}

	handle := &FolderHandle{id: folder.ID, name: folder.Name, adapter: a}
	a.attach(files, handle)
	a.log.Info("selected drive folder %q (%s)", handle.name, handle.id)
	return handle, nil
}

// Restore attaches a folder handle after checking the folder still exists.
func (a *Adapter) Restore(ctx context.Context, handle domain.StorageHandle) error {
	fh, ok := handle.(*FolderHandle)
	if !ok {
		return fmt.Errorf("%w: %T", domain.ErrUnsupportedType, handle)
	}

	if a.currentCreds() == nil {
		if err := a.Initialize(ctx); err != nil {
			return err
		}
	}

	files, err := a.client(ctx)
	if err != nil {
		return err
	}

	var folder *remoteFile
	err = a.do(ctx, "get folder", func() error {
		var err error
		folder, err = files.get(ctx, fh.id)
		return err
	})
	if errors.Is(err, ErrNotFound) || (err == nil && (folder.Trashed || !folder.IsFolder())) {
		return fmt.Errorf("%w: drive folder %s is gone", domain.ErrNoHandle, fh.id)
	}
	if err != nil {
		return err
	}

	fh.adapter = a
	a.attach(files, fh)
	a.log.Debug("restored drive folder %q", fh.name)
	return nil
}

// ResolveHandle rebuilds a folder handle from a cached descriptor.
func (a *Adapter) ResolveHandle(_ context.Context, desc domain.HandleDescriptor) (domain.StorageHandle, error) {
	if desc.Kind != domain.HandleKindRemote {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, desc.Kind)
	}
	if desc.Locator == "" {
		return nil, fmt.Errorf("%w: empty folder id", domain.ErrInvalidInput)
	}
	return &FolderHandle{id: desc.Locator, name: desc.Name, adapter: a}, nil
}

// IsConnected reports whether a folder is attached and the token is live
// or refreshable.
func (a *Adapter) IsConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.root != nil && a.creds.IsUsable()
}

// Handle returns the attached folder handle, or nil.
func (a *Adapter) Handle() domain.StorageHandle {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.root == nil {
		return nil
	}
	return a.root
}

// ReadFile downloads the file at p, or returns nil if it does not exist.
func (a *Adapter) ReadFile(ctx context.Context, p string) ([]byte, error) {
	files, rootID, err := a.session()
	if err != nil {
		return nil, err
	}
	dirs, name, err := splitPath(p)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: cannot read the storage root", domain.ErrInvalidInput)
	}

	parentID, err := a.walk(ctx, files, rootID, dirs, false)
	if err != nil || parentID == "" {
		return nil, err
	}

	file, err := a.lookup(ctx, files, parentID, name)
	if err != nil || file == nil || file.IsFolder() {
		return nil, err
	}

	var data []byte
	err = a.do(ctx, "download "+p, func() error {
		var err error
		data, err = files.download(ctx, file.ID)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// WriteFile replaces the file at p, creating missing folders.
func (a *Adapter) WriteFile(ctx context.Context, p string, content []byte) error {
	files, rootID, err := a.session()
	if err != nil {
		return err
	}
	dirs, name, err := splitPath(p)
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: cannot write the storage root", domain.ErrInvalidInput)
	}

	parentID, err := a.walk(ctx, files, rootID, dirs, true)
	if err != nil {
		return err
	}

	existing, err := a.lookup(ctx, files, parentID, name)
	if err != nil {
		return err
	}
	if existing != nil && existing.IsFolder() {
		return fmt.Errorf("%w: %s is a folder", domain.ErrInvalidInput, p)
	}

	if existing != nil {
		err = a.do(ctx, "update "+p, func() error {
			return files.update(ctx, existing.ID, content)
		})
	} else {
		err = a.do(ctx, "create "+p, func() error {
			_, err := files.create(ctx, parentID, name, content)
			return err
		})
	}
	if err != nil {
		return err
	}

	a.log.Debug("wrote %s (%d bytes)", p, len(content))
	return nil
}

// ListFiles returns the entries directly under dir, sorted. Folders carry a
// trailing "/". A missing folder lists as empty.
func (a *Adapter) ListFiles(ctx context.Context, dir string) ([]string, error) {
	files, rootID, err := a.session()
	if err != nil {
		return nil, err
	}
	dirs, name, err := splitPath(dir)
	if err != nil {
		return nil, err
	}
	if name != "" {
		dirs = append(dirs, name)
	}

	folderID, err := a.walk(ctx, files, rootID, dirs, false)
	if err != nil {
		return nil, err
	}
	if folderID == "" {
		return []string{}, nil
	}

	var entries []*remoteFile
	err = a.do(ctx, "list "+dir, func() error {
		var err error
		entries, err = files.list(ctx, folderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsFolder() {
			names = append(names, e.Name+"/")
		} else {
			names = append(names, e.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Disconnect detaches the folder and signs out: stored credentials are
// deleted, so the next connection asks for consent again.
func (a *Adapter) Disconnect(ctx context.Context) error {
	a.mu.Lock()
	a.root = nil
	a.files = nil
	a.creds = nil
	a.mu.Unlock()

	if err := a.tokens.DeleteCredentials(ctx); err != nil {
		return fmt.Errorf("delete drive credentials: %w", err)
	}
	a.log.Debug("signed out of drive")
	return nil
}

// authorize runs the PKCE consent flow and stores the resulting tokens.
func (a *Adapter) authorize(ctx context.Context) error {
	if a.authorizer == nil {
		return domain.ErrAuthRequired
	}
	if !a.settings.IsConfigured() {
		return fmt.Errorf("%w: drive client id and secret are not configured", domain.ErrInvalidInput)
	}

	a.authMu.Lock()
	defer a.authMu.Unlock()

	cfg := a.oauthConfig("")
	verifier := oauth2.GenerateVerifier()

	code, redirectURI, err := a.authorizer.Authorize(ctx, func(redirectURI, state string) string {
		c := a.oauthConfig(redirectURI)
		return c.AuthCodeURL(state,
			oauth2.AccessTypeOffline,
			oauth2.ApprovalForce,
			oauth2.S256ChallengeOption(verifier),
		)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuthRequired, err)
	}

	cfg.RedirectURL = redirectURI
	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	creds := credentialsFromToken(tok, "")
	a.mu.Lock()
	a.creds = creds
	a.files = nil
	a.mu.Unlock()

	// The account email is informational only.
	if files, err := a.client(ctx); err == nil {
		if email, err := files.accountEmail(ctx); err == nil {
			a.mu.Lock()
			creds.AccountIdentifier = email
			// Rebuild the client so refreshed tokens keep the account.
			a.files = nil
			a.mu.Unlock()
		} else {
			a.log.Debug("look up drive account: %v", err)
		}
	}

	if err := a.tokens.SaveCredentials(ctx, *creds); err != nil {
		return fmt.Errorf("save drive credentials: %w", err)
	}
	a.log.Info("authorised drive access for %s", accountLabel(creds))
	return nil
}

func (a *Adapter) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.settings.ClientID,
		ClientSecret: a.settings.ClientSecret,
		Endpoint:     a.endpoint,
		RedirectURL:  redirectURI,
		Scopes:       []string{drive.DriveFileScope},
	}
}

// client returns the Drive client for the current credentials.
func (a *Adapter) client(ctx context.Context) (filesAPI, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.files != nil {
		return a.files, nil
	}
	if !a.creds.IsUsable() {
		return nil, domain.ErrAuthRequired
	}

	base := a.oauthConfig("").TokenSource(context.WithoutCancel(ctx), tokenFromCredentials(a.creds))
	ts := newPersistingTokenSource(base, a.tokens, a.creds, func(c *domain.RemoteCredentials) {
		a.mu.Lock()
		a.creds = c
		a.mu.Unlock()
	})

	files, err := a.newFiles(context.WithoutCancel(ctx), oauth2.ReuseTokenSource(nil, ts))
	if err != nil {
		return nil, err
	}
	a.files = files
	return files, nil
}

func (a *Adapter) attach(files filesAPI, handle *FolderHandle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files = files
	a.root = handle
}

func (a *Adapter) currentCreds() *domain.RemoteCredentials {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.creds
}

// session returns the client and root folder ID, or ErrNotConnected.
func (a *Adapter) session() (filesAPI, string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.root == nil || a.files == nil || !a.creds.IsUsable() {
		return nil, "", domain.ErrNotConnected
	}
	return a.files, a.root.id, nil
}

// walk resolves dirs below parentID. With create unset, a missing folder
// yields "".
func (a *Adapter) walk(ctx context.Context, files filesAPI, parentID string, dirs []string, create bool) (string, error) {
	for _, dir := range dirs {
		if create {
			folder, err := a.findOrCreateFolder(ctx, files, parentID, dir)
			if err != nil {
				return "", err
			}
			parentID = folder.ID
			continue
		}

		folder, err := a.lookup(ctx, files, parentID, dir)
		if err != nil {
			return "", err
		}
		if folder == nil || !folder.IsFolder() {
			return "", nil
		}
		parentID = folder.ID
	}
	return parentID, nil
}

func (a *Adapter) findOrCreateFolder(ctx context.Context, files filesAPI, parentID, name string) (*remoteFile, error) {
	existing, err := a.lookup(ctx, files, parentID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.IsFolder() {
			return nil, fmt.Errorf("%w: %s is a file", domain.ErrInvalidInput, name)
		}
		return existing, nil
	}

	var folder *remoteFile
	err = a.do(ctx, "create folder "+name, func() error {
		var err error
		folder, err = files.createFolder(ctx, parentID, name)
		return err
	})
	return folder, err
}

func (a *Adapter) lookup(ctx context.Context, files filesAPI, parentID, name string) (*remoteFile, error) {
	var found *remoteFile
	err := a.do(ctx, "find "+name, func() error {
		var err error
		found, err = files.find(ctx, parentID, name)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return found, err
}

// do runs one rate-limited API call and classifies its error.
func (a *Adapter) do(ctx context.Context, op string, call func() error) error {
	if err := a.throttle.wait(ctx); err != nil {
		return err
	}
	err := call()
	switch {
	case err == nil:
		a.throttle.accepted()
	case isRateLimited(err):
		pause := a.throttle.rejected(retryAfter(err))
		a.log.Warn("drive rate limited during %s; pausing %s", op, pause)
	}
	return wrapError(op, err)
}

// splitPath turns a root-relative path into parent folders and a final name.
func splitPath(p string) ([]string, string, error) {
	cleaned := path.Clean(strings.TrimLeft(p, "/"))
	if cleaned == "." {
		return nil, "", nil
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrPathEscapesRoot, p)
	}
	parts := strings.Split(cleaned, "/")
	return parts[:len(parts)-1], parts[len(parts)-1], nil
}

func accountLabel(creds *domain.RemoteCredentials) string {
	if creds.AccountIdentifier != "" {
		return creds.AccountIdentifier
	}
	return "unknown account"
}
