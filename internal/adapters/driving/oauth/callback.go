// Package oauth runs the loopback receiver for browser sign-in and opens
// the user's browser.
package oauth

import (
	"context"
	"crypto/subtle"
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

// CallbackPath is where the identity provider redirects the browser.
const CallbackPath = "/callback"

// ErrStateMismatch means the redirect did not carry the state we sent.
var ErrStateMismatch = errors.New("oauth callback state mismatch")

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>ragdesk</title>
<style>
body{font-family:system-ui,sans-serif;display:grid;place-items:center;height:100vh;margin:0;background:#f6f7f9}
main{background:#fff;border:1px solid #d0d4da;border-radius:12px;padding:40px 56px;text-align:center}
h1{margin:0 0 8px;font-size:22px;color:#1f2933}p{margin:0;color:#616e7c}
</style></head>
<body><main><h1>{{.Title}}</h1><p>{{.Message}}</p></main></body>
</html>`))

type outcome struct {
	code string
	err  error
}

// Receiver accepts exactly one authorization redirect on 127.0.0.1.
type Receiver struct {
	listener net.Listener
	server   *http.Server

	mu    sync.Mutex
	state string

	once   sync.Once
	result chan outcome
	stop   sync.Once
}

// Listen binds the first free port in [first, last]. The receiver does not
// answer redirects until Serve is called.
func Listen(first, last int) (*Receiver, error) {
	if first > last {
		return nil, fmt.Errorf("invalid port range %d-%d", first, last)
	}
	for port := first; port <= last; port++ {
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			return newReceiver(l), nil
		}
	}
	return nil, fmt.Errorf("no free callback port in %d-%d", first, last)
}

func newReceiver(l net.Listener) *Receiver {
	r := &Receiver{listener: l, result: make(chan outcome, 1)}
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+CallbackPath, r.handle)
	r.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	return r
}

// Port is the bound port.
func (r *Receiver) Port() int {
	return r.listener.Addr().(*net.TCPAddr).Port
}

// RedirectURI is the URI to register with the authorization request.
func (r *Receiver) RedirectURI() string {
	return RedirectURIForPort(r.Port())
}

// RedirectURIForPort returns the loopback redirect URI for port.
func RedirectURIForPort(port int) string {
	return fmt.Sprintf("http://localhost:%d%s", port, CallbackPath)
}

// Serve starts answering redirects that carry state.
func (r *Receiver) Serve(state string) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()

	go func() {
		if err := r.server.Serve(r.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.finish(outcome{err: err})
		}
	}()
}

// finish records the first outcome; later ones are dropped.
func (r *Receiver) finish(o outcome) {
	r.once.Do(func() { r.result <- o })
}

func (r *Receiver) handle(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	r.mu.Lock()
	want := r.state
	r.mu.Unlock()

	var o outcome
	switch {
	case q.Get("error") != "":
		o.err = fmt.Errorf("oauth error: %s - %s", q.Get("error"), q.Get("error_description"))
		render(w, http.StatusBadRequest, "Sign-in failed", q.Get("error_description"))
	case subtle.ConstantTimeCompare([]byte(q.Get("state")), []byte(want)) != 1:
		o.err = ErrStateMismatch
		render(w, http.StatusBadRequest, "Sign-in failed", "Invalid state parameter.")
	case q.Get("code") == "":
		o.err = errors.New("no authorization code received")
		render(w, http.StatusBadRequest, "Sign-in failed", "No authorization code received.")
	default:
		o.code = q.Get("code")
		render(w, http.StatusOK, "Signed in.", "You can close this window and return to ragdesk.")
	}
	r.finish(o)
}

func render(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = page.Execute(w, struct{ Title, Message string }{title, message})
}

// Wait returns the authorization code from the first redirect.
func (r *Receiver) Wait(ctx context.Context) (string, error) {
	select {
	case o := <-r.result:
		return o.code, o.err
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for authorization callback: %w", ctx.Err())
	}
}

// Close stops the receiver and releases the port. Safe to call twice.
func (r *Receiver) Close() error {
	var err error
	r.stop.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = r.server.Shutdown(ctx)
		if cerr := r.listener.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) && err == nil {
			err = cerr
		}
	})
	return err
}

// OpenBrowser asks the desktop to open url.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("cannot open a browser on %s", runtime.GOOS)
	}
	return cmd.Start()
}
