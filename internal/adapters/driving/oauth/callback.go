// Package oauth receives OAuth redirects on a loopback address so the Drive
// backend can obtain user consent from a terminal session.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"
)

// CallbackPath is the redirect path served by Receiver.
const CallbackPath = "/callback"

var (
	// ErrCallbackTimeout is returned when no redirect arrives in time.
	ErrCallbackTimeout = errors.New("timeout waiting for authorization callback")

	// ErrConsentDenied is returned when the provider reports that the user declined.
	ErrConsentDenied = errors.New("consent denied")

	// ErrStateMismatch is reported to requests that carry an unexpected state.
	ErrStateMismatch = errors.New("authorization state mismatch")
)

// Receiver accepts exactly one OAuth redirect. The first redirect carrying
// the expected state decides the outcome; later ones and those with any
// other state are answered but ignored.
type Receiver struct {
	state    string
	listener net.Listener
	server   *http.Server

	once   sync.Once
	result chan redirect
}

type redirect struct {
	code string
	err  error
}

// Listen starts a receiver on a free loopback port.
func Listen(state string) (*Receiver, error) {
	return ListenOn("127.0.0.1:0", state)
}

// ListenOn starts a receiver on addr. The redirect must carry state.
func ListenOn(addr, state string) (*Receiver, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	r := &Receiver{
		state:    state,
		listener: ln,
		result:   make(chan redirect, 1),
	}
	mux := http.NewServeMux()
	mux.Handle(CallbackPath, r)
	r.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	go func() {
		if err := r.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.finish(redirect{err: err})
		}
	}()
	return r, nil
}

// RedirectURI is the URI the provider must redirect to.
func (r *Receiver) RedirectURI() string {
	return "http://" + r.listener.Addr().String() + CallbackPath
}

// ServeHTTP handles the provider's redirect.
func (r *Receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()

	// Requests without our state cannot decide the outcome.
	if q.Get("state") != r.state {
		writePage(w, http.StatusBadRequest, "Authorization failed", ErrStateMismatch.Error())
		return
	}

	var res redirect
	switch {
	case q.Get("error") == "access_denied":
		res.err = ErrConsentDenied
	case q.Get("error") != "":
		res.err = fmt.Errorf("provider error %s: %s", q.Get("error"), q.Get("error_description"))
	case q.Get("code") == "":
		res.err = errors.New("no authorization code received")
	default:
		res.code = q.Get("code")
	}

	if !r.finish(res) {
		writePage(w, http.StatusConflict, "Already handled", "This sign-in was already completed. You can close this window.")
		return
	}
	if res.err != nil {
		writePage(w, http.StatusBadRequest, "Authorization failed", res.err.Error())
		return
	}
	writePage(w, http.StatusOK, "Media Tracker is connected", "You can close this window and return to the terminal.")
}

// finish records the outcome once. It reports whether res was the one kept.
func (r *Receiver) finish(res redirect) bool {
	kept := false
	r.once.Do(func() {
		r.result <- res
		kept = true
	})
	return kept
}

// Wait returns the authorization code, or an error if the redirect failed,
// timeout elapsed or ctx ended.
func (r *Receiver) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case res := <-r.result:
		return res.code, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrCallbackTimeout
		}
		return "", ctx.Err()
	}
}

// Close stops the receiver.
func (r *Receiver) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.server.Shutdown(ctx)
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Media Tracker</title>
<style>
body { font-family: system-ui, sans-serif; display: grid; place-items: center; height: 100vh; margin: 0; background: #fafafa; }
main { text-align: center; background: #fff; padding: 48px 64px; border-radius: 16px; border: 1px solid #e5e7eb; }
h1 { color: #6366f1; margin: 0 0 8px; font-size: 24px; }
p { color: #6b7280; margin: 0; }
</style>
</head>
<body><main><h1>{{.Title}}</h1><p>{{.Message}}</p></main></body>
</html>
`))

func writePage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = pageTmpl.Execute(w, struct{ Title, Message string }{title, message})
}

// OpenBrowser opens url in the default browser.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux", "freebsd", "openbsd", "netbsd":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
