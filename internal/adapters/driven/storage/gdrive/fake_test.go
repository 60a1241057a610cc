package gdrive

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/mediatracker/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/mediatracker/internal/core/domain"
)

type fakeNode struct {
	remoteFile
	parent  string
	content []byte
	created int
}

// fakeFiles is an in-memory Drive.
type fakeFiles struct {
	mu      sync.Mutex
	nodes   map[string]*fakeNode
	seq     int
	email   string
	failOn  map[string]error
	creates int
	updates int
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{
		nodes:  make(map[string]*fakeNode),
		email:  "reader@example.com",
		failOn: make(map[string]error),
	}
}

func (f *fakeFiles) fail(op string) error {
	if err, ok := f.failOn[op]; ok {
		return err
	}
	return nil
}

func (f *fakeFiles) add(parent, name, mime string, content []byte) *fakeNode {
	f.seq++
	n := &fakeNode{
		remoteFile: remoteFile{ID: fmt.Sprintf("id-%d", f.seq), Name: name, MimeType: mime},
		parent:     parent,
		content:    content,
		created:    f.seq,
	}
	f.nodes[n.ID] = n
	return n
}

func (f *fakeFiles) children(parentID string) []*fakeNode {
	var out []*fakeNode
	for _, n := range f.nodes {
		if n.parent == parentID && !n.Trashed {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].created < out[j].created })
	return out
}

func (f *fakeFiles) find(_ context.Context, parentID, name string) (*remoteFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("find"); err != nil {
		return nil, err
	}
	for _, n := range f.children(parentID) {
		if n.Name == name {
			rf := n.remoteFile
			return &rf, nil
		}
	}
	return nil, nil
}

func (f *fakeFiles) list(_ context.Context, parentID string) ([]*remoteFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("list"); err != nil {
		return nil, err
	}
	var out []*remoteFile
	for _, n := range f.children(parentID) {
		rf := n.remoteFile
		out = append(out, &rf)
	}
	return out, nil
}

func (f *fakeFiles) get(_ context.Context, fileID string) (*remoteFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("get"); err != nil {
		return nil, err
	}
	n, ok := f.nodes[fileID]
	if !ok {
		return nil, &googleapi.Error{Code: http.StatusNotFound}
	}
	rf := n.remoteFile
	return &rf, nil
}

func (f *fakeFiles) createFolder(_ context.Context, parentID, name string) (*remoteFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("createFolder"); err != nil {
		return nil, err
	}
	rf := f.add(parentID, name, MimeTypeFolder, nil).remoteFile
	return &rf, nil
}

func (f *fakeFiles) create(_ context.Context, parentID, name string, content []byte) (*remoteFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("create"); err != nil {
		return nil, err
	}
	f.creates++
	rf := f.add(parentID, name, "application/octet-stream", append([]byte(nil), content...)).remoteFile
	return &rf, nil
}

func (f *fakeFiles) update(_ context.Context, fileID string, content []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("update"); err != nil {
		return err
	}
	n, ok := f.nodes[fileID]
	if !ok {
		return &googleapi.Error{Code: http.StatusNotFound}
	}
	f.updates++
	n.content = append([]byte(nil), content...)
	return nil
}

func (f *fakeFiles) download(_ context.Context, fileID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("download"); err != nil {
		return nil, err
	}
	n, ok := f.nodes[fileID]
	if !ok {
		return nil, &googleapi.Error{Code: http.StatusNotFound}
	}
	return append([]byte(nil), n.content...), nil
}

func (f *fakeFiles) accountEmail(context.Context) (string, error) {
	return f.email, nil
}

// childNamed returns the live child of parentID called name.
func (f *fakeFiles) childNamed(parentID, name string) *fakeNode {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.children(parentID) {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// fakeAuthorizer approves consent immediately.
type fakeAuthorizer struct {
	authURL string
	calls   int
	err     error
}

func (a *fakeAuthorizer) Authorize(
	_ context.Context, buildURL func(redirectURI, state string) string,
) (string, string, error) {
	a.calls++
	if a.err != nil {
		return "", "", a.err
	}
	redirect := "http://127.0.0.1:4567/callback"
	a.authURL = buildURL(redirect, "state-123")
	return "auth-code", redirect, nil
}

// newTokenServer serves the OAuth token endpoint and records the last form.
func newTokenServer(t *testing.T) (*httptest.Server, *http.Request) {
	t.Helper()
	last := &http.Request{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		*last = *r
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"access_token":"fresh-access","refresh_token":"fresh-refresh","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(srv.Close)
	return srv, last
}

func usableCreds() domain.RemoteCredentials {
	return domain.RemoteCredentials{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}
}

func newTestAdapter(t *testing.T, withCreds bool, auth *fakeAuthorizer) (*Adapter, *fakeFiles, *memory.TokenStore) {
	t.Helper()
	tokens := memory.NewTokenStore()
	if withCreds {
		require.NoError(t, tokens.SaveCredentials(context.Background(), usableCreds()))
	}

	var a *Adapter
	if auth != nil {
		a = New(domain.DriveSettings{ClientID: "client", ClientSecret: "secret"}, tokens, auth)
	} else {
		a = New(domain.DriveSettings{ClientID: "client", ClientSecret: "secret"}, tokens, nil)
	}

	fake := newFakeFiles()
	a.newFiles = func(context.Context, oauth2.TokenSource) (filesAPI, error) { return fake, nil }
	a.throttle = newThrottle(10000, 10000)
	return a, fake, tokens
}

func newConnectedAdapter(t *testing.T) (*Adapter, *fakeFiles) {
	t.Helper()
	a, fake, _ := newTestAdapter(t, true, nil)
	_, err := a.SelectStorage(context.Background())
	require.NoError(t, err)
	return a, fake
}
