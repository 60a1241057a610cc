package gdrive

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
)

func TestAdapter_Kind(t *testing.T) {
	a, _, _ := newTestAdapter(t, false, nil)
	assert.Equal(t, domain.HandleKindRemote, a.Kind())
}

func TestNew_DefaultFolderName(t *testing.T) {
	a := New(domain.DriveSettings{}, nil, nil)
	assert.Equal(t, domain.DefaultDriveFolderName, a.settings.FolderName)
}

func TestAdapter_Initialize_Unconfigured(t *testing.T) {
	a := New(domain.DriveSettings{}, nil, nil)
	assert.ErrorIs(t, a.Initialize(context.Background()), domain.ErrInvalidInput)
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestAdapter(t, true, nil)
	require.NoError(t, a.Initialize(ctx))

	assert.False(t, a.IsConnected())
	assert.Nil(t, a.Handle())
	_, err := a.ReadFile(ctx, ".mmt.config")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
	assert.ErrorIs(t, a.WriteFile(ctx, ".mmt.config", nil), domain.ErrNotConnected)
	_, err = a.ListFiles(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestAdapter_SelectStorage_CreatesFolderOnce(t *testing.T) {
	ctx := context.Background()
	a, fake, _ := newTestAdapter(t, true, nil)

	first, err := a.SelectStorage(ctx)
	require.NoError(t, err)
	second, err := a.SelectStorage(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Locator(), second.Locator())
	assert.Equal(t, domain.DefaultDriveFolderName, first.Name())
	assert.Len(t, fake.children(rootFolderID), 1)
	assert.True(t, a.IsConnected())
}

func TestAdapter_SelectStorage_NeedsAuth(t *testing.T) {
	a, _, _ := newTestAdapter(t, false, nil)

	_, err := a.SelectStorage(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.False(t, a.IsConnected())
}

func TestAdapter_SelectStorage_RootNameIsAFile(t *testing.T) {
	a, fake, _ := newTestAdapter(t, true, nil)
	fake.add(rootFolderID, domain.DefaultDriveFolderName, "text/plain", nil)

	_, err := a.SelectStorage(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdapter_SelectStorage_AuthorisesWithPKCE(t *testing.T) {
	ctx := context.Background()
	srv, last := newTokenServer(t)
	auth := &fakeAuthorizer{}
	a, _, tokens := newTestAdapter(t, false, auth)
	a.endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}

	_, err := a.SelectStorage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, auth.calls)

	authURL, err := url.Parse(auth.authURL)
	require.NoError(t, err)
	q := authURL.Query()
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "http://127.0.0.1:4567/callback", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "drive.file")

	assert.Equal(t, "auth-code", last.Form.Get("code"))
	assert.NotEmpty(t, last.Form.Get("code_verifier"))
	assert.Equal(t, "http://127.0.0.1:4567/callback", last.Form.Get("redirect_uri"))

	creds, err := tokens.GetCredentials(ctx)
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "fresh-access", creds.AccessToken)
	assert.Equal(t, "fresh-refresh", creds.RefreshToken)
	assert.Equal(t, "reader@example.com", creds.AccountIdentifier)
}

func TestAdapter_SelectStorage_ConsentRefused(t *testing.T) {
	auth := &fakeAuthorizer{err: errors.New("access_denied")}
	a, _, _ := newTestAdapter(t, false, auth)

	_, err := a.SelectStorage(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

func TestAdapter_ReadMissingReturnsNil(t *testing.T) {
	a, _ := newConnectedAdapter(t)

	for _, p := range []string{".mmt.config", "records/missing.json", "a/b/c.txt"} {
		data, err := a.ReadFile(context.Background(), p)
		require.NoError(t, err, p)
		assert.Nil(t, data, p)
	}
}

func TestAdapter_ReadAbsent(t *testing.T) {
	ctx := context.Background()
	a, _ := newConnectedAdapter(t)
	require.NoError(t, a.WriteFile(ctx, "records.csv", []byte("title\n")))
	require.NoError(t, a.WriteFile(ctx, "books/dune.json", []byte("{}")))

	tests := []struct {
		name string
		path string
	}{
		{"missing file", ".mmt.config"},
		{"missing parent", "a/b/c.txt"},
		{"parent is a file", "records.csv/.mmt.config"},
		{"directory", "books"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := a.ReadFile(ctx, tt.path)
			require.NoError(t, err)
			assert.Nil(t, data)
		})
	}

	names, err := a.ListFiles(ctx, "records.csv")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestAdapter_WriteCreatesFoldersAndOverwrites(t *testing.T) {
	ctx := context.Background()
	a, fake := newConnectedAdapter(t)

	require.NoError(t, a.WriteFile(ctx, "records/movies/alien.json", []byte(`{"title":"Alien","year":1979}`)))
	require.NoError(t, a.WriteFile(ctx, "records/movies/alien.json", []byte(`{}`)))

	data, err := a.ReadFile(ctx, "records/movies/alien.json")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
	assert.Equal(t, 1, fake.creates)
	assert.Equal(t, 1, fake.updates)

	records := fake.childNamed(a.Handle().Locator(), "records")
	require.NotNil(t, records)
	assert.True(t, records.IsFolder())
}

func TestAdapter_WriteEmptyFile(t *testing.T) {
	ctx := context.Background()
	a, _ := newConnectedAdapter(t)

	require.NoError(t, a.WriteFile(ctx, "empty", nil))
	data, err := a.ReadFile(ctx, "empty")
	require.NoError(t, err)
	assert.NotNil(t, data)
	assert.Empty(t, data)
}

func TestAdapter_WriteOverFolder(t *testing.T) {
	ctx := context.Background()
	a, _ := newConnectedAdapter(t)
	require.NoError(t, a.WriteFile(ctx, "covers/a.jpg", []byte{1}))

	assert.ErrorIs(t, a.WriteFile(ctx, "covers", []byte{1}), domain.ErrInvalidInput)
	data, err := a.ReadFile(ctx, "covers")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestAdapter_ListFiles(t *testing.T) {
	ctx := context.Background()
	a, _ := newConnectedAdapter(t)
	require.NoError(t, a.WriteFile(ctx, ".mmt.config", []byte("{}")))
	require.NoError(t, a.WriteFile(ctx, "records/b.json", []byte("{}")))
	require.NoError(t, a.WriteFile(ctx, "records/a.json", []byte("{}")))

	names, err := a.ListFiles(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{".mmt.config", "records/"}, names)

	names, err = a.ListFiles(ctx, "records/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json"}, names)

	names, err = a.ListFiles(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestAdapter_PathEscapesRoot(t *testing.T) {
	ctx := context.Background()
	a, _ := newConnectedAdapter(t)

	assert.ErrorIs(t, a.WriteFile(ctx, "../x", []byte{1}), domain.ErrPathEscapesRoot)
	_, err := a.ReadFile(ctx, "a/../../x")
	assert.ErrorIs(t, err, domain.ErrPathEscapesRoot)
	assert.ErrorIs(t, a.WriteFile(ctx, "/", []byte{1}), domain.ErrInvalidInput)
}

func TestAdapter_ErrorClassification(t *testing.T) {
	ctx := context.Background()

	t.Run("download 404 reads as absent", func(t *testing.T) {
		a, fake := newConnectedAdapter(t)
		require.NoError(t, a.WriteFile(ctx, "a.txt", []byte("x")))
		fake.failOn["download"] = &googleapi.Error{Code: http.StatusNotFound}

		data, err := a.ReadFile(ctx, "a.txt")
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("unauthorised", func(t *testing.T) {
		a, fake := newConnectedAdapter(t)
		fake.failOn["find"] = &googleapi.Error{Code: http.StatusUnauthorized}

		_, err := a.ReadFile(ctx, "a.txt")
		assert.ErrorIs(t, err, domain.ErrAuthExpired)
	})

	t.Run("rate limited sets backoff", func(t *testing.T) {
		a, fake := newConnectedAdapter(t)
		fake.failOn["create"] = &googleapi.Error{
			Code:   http.StatusTooManyRequests,
			Header: http.Header{"Retry-After": []string{"120"}},
		}

		err := a.WriteFile(ctx, "a.txt", []byte("x"))
		assert.ErrorIs(t, err, ErrRateLimited)
		assert.False(t, a.throttle.ready())
	})
}

func TestAdapter_ResolveAndRestore(t *testing.T) {
	ctx := context.Background()
	a, fake := newConnectedAdapter(t)
	folderID := a.Handle().Locator()
	require.NoError(t, a.WriteFile(ctx, ".mmt.config", []byte(`{"cardSize":"large"}`)))

	// A new session over the same account and Drive.
	b, _, _ := newTestAdapter(t, true, nil)
	b.newFiles = func(context.Context, oauth2.TokenSource) (filesAPI, error) { return fake, nil }

	h, err := b.ResolveHandle(ctx, domain.HandleDescriptor{
		Kind: domain.HandleKindRemote, Locator: folderID, Name: domain.DefaultDriveFolderName,
	})
	require.NoError(t, err)
	require.NoError(t, b.Restore(ctx, h))

	assert.True(t, b.IsConnected())
	data, err := b.ReadFile(ctx, ".mmt.config")
	require.NoError(t, err)
	assert.Equal(t, `{"cardSize":"large"}`, string(data))
}

func TestAdapter_Restore_Rejects(t *testing.T) {
	ctx := context.Background()

	t.Run("foreign handle", func(t *testing.T) {
		a, _, _ := newTestAdapter(t, true, nil)
		assert.ErrorIs(t, a.Restore(ctx, nil), domain.ErrUnsupportedType)
	})

	t.Run("folder deleted", func(t *testing.T) {
		a, _, _ := newTestAdapter(t, true, nil)
		h, err := a.ResolveHandle(ctx, domain.HandleDescriptor{Kind: domain.HandleKindRemote, Locator: "gone"})
		require.NoError(t, err)
		assert.ErrorIs(t, a.Restore(ctx, h), domain.ErrNoHandle)
		assert.False(t, a.IsConnected())
	})

	t.Run("folder trashed", func(t *testing.T) {
		a, fake, _ := newTestAdapter(t, true, nil)
		n := fake.add(rootFolderID, "MediaTracker", MimeTypeFolder, nil)
		n.Trashed = true
		h, err := a.ResolveHandle(ctx, domain.HandleDescriptor{Kind: domain.HandleKindRemote, Locator: n.ID})
		require.NoError(t, err)
		assert.ErrorIs(t, a.Restore(ctx, h), domain.ErrNoHandle)
	})

	t.Run("no credentials", func(t *testing.T) {
		a, _, _ := newTestAdapter(t, false, nil)
		h, err := a.ResolveHandle(ctx, domain.HandleDescriptor{Kind: domain.HandleKindRemote, Locator: "x"})
		require.NoError(t, err)
		assert.ErrorIs(t, a.Restore(ctx, h), domain.ErrAuthRequired)
	})
}

func TestAdapter_ResolveHandle_Rejects(t *testing.T) {
	a, _, _ := newTestAdapter(t, true, nil)

	_, err := a.ResolveHandle(context.Background(), domain.HandleDescriptor{Kind: domain.HandleKindLocal, Locator: "/x"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	_, err = a.ResolveHandle(context.Background(), domain.HandleDescriptor{Kind: domain.HandleKindRemote})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFolderHandle_Permission(t *testing.T) {
	ctx := context.Background()

	t.Run("granted with usable token", func(t *testing.T) {
		a, _, _ := newTestAdapter(t, true, nil)
		h, err := a.ResolveHandle(ctx, domain.HandleDescriptor{Kind: domain.HandleKindRemote, Locator: "f"})
		require.NoError(t, err)

		state, err := h.QueryPermission(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.PermissionGranted, state)
	})

	t.Run("prompt without token, no authorizer", func(t *testing.T) {
		a, _, _ := newTestAdapter(t, false, nil)
		h, err := a.ResolveHandle(ctx, domain.HandleDescriptor{Kind: domain.HandleKindRemote, Locator: "f"})
		require.NoError(t, err)

		state, err := h.QueryPermission(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.PermissionPrompt, state)

		state, err = h.RequestPermission(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.PermissionPrompt, state)
	})

	t.Run("request runs consent", func(t *testing.T) {
		srv, _ := newTokenServer(t)
		auth := &fakeAuthorizer{}
		a, _, _ := newTestAdapter(t, false, auth)
		a.endpoint = oauth2.Endpoint{TokenURL: srv.URL + "/token", AuthURL: srv.URL + "/auth"}
		h, err := a.ResolveHandle(ctx, domain.HandleDescriptor{Kind: domain.HandleKindRemote, Locator: "f"})
		require.NoError(t, err)

		state, err := h.RequestPermission(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.PermissionGranted, state)
		assert.Equal(t, 1, auth.calls)

		state, err = h.QueryPermission(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.PermissionGranted, state)
	})
}

func TestAdapter_Disconnect_SignsOut(t *testing.T) {
	ctx := context.Background()
	a, _, tokens := newTestAdapter(t, true, nil)
	_, err := a.SelectStorage(ctx)
	require.NoError(t, err)

	require.NoError(t, a.Disconnect(ctx))

	assert.False(t, a.IsConnected())
	assert.Nil(t, a.Handle())
	creds, err := tokens.GetCredentials(ctx)
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		in      string
		dirs    []string
		name    string
		wantErr error
	}{
		{in: "", name: ""},
		{in: "/", name: ""},
		{in: ".mmt.config", name: ".mmt.config"},
		{in: "/a/b/c.json", dirs: []string{"a", "b"}, name: "c.json"},
		{in: "a//b/./c", dirs: []string{"a", "b"}, name: "c"},
		{in: "a/../b", name: "b"},
		{in: "..", wantErr: domain.ErrPathEscapesRoot},
		{in: "../a", wantErr: domain.ErrPathEscapesRoot},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			dirs, name, err := splitPath(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			if len(tt.dirs) == 0 {
				assert.Empty(t, dirs)
			} else {
				assert.Equal(t, tt.dirs, dirs)
			}
		})
	}
}
