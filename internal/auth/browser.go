package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"
)

const defaultAuthTimeout = 5 * time.Minute

var ErrAuthorizationDenied = errors.New("authorization denied")

// Authorizer produces a fresh token for the given client configuration.
type Authorizer interface {
	Authorize(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error)
}

// BrowserAuthorizer runs the installed-app flow: a loopback listener receives
// the redirect after the user consents in their browser.
type BrowserAuthorizer struct {
	port    int
	timeout time.Duration
	out     io.Writer
	openURL func(url string) error
}

func NewBrowserAuthorizer(port int, timeout time.Duration, out io.Writer) *BrowserAuthorizer {
	if timeout <= 0 {
		timeout = defaultAuthTimeout
	}
	return &BrowserAuthorizer{
		port:    port,
		timeout: timeout,
		out:     out,
		openURL: browser.OpenURL,
	}
}

func (a *BrowserAuthorizer) Authorize(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", a.port))
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	flowConf := *conf
	flowConf.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/", listener.Addr().(*net.TCPAddr).Port)

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	server := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler:           callbackHandler(state, codeChan, errChan),
	}

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			sendErr(errChan, err)
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := flowConf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	_, _ = fmt.Fprintf(a.out, "Opening browser for YouTube authorization...\nIf the browser doesn't open, visit:\n%s\n", authURL)
	_ = a.openURL(authURL)

	select {
	case code := <-codeChan:
		token, err := flowConf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, fmt.Errorf("failed to exchange code: %w", err)
		}
		return token, nil
	case err := <-errChan:
		return nil, err
	case <-time.After(a.timeout):
		return nil, fmt.Errorf("authorization timed out after %s", a.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func callbackHandler(state string, codeChan chan<- string, errChan chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		query := r.URL.Query()
		if reason := query.Get("error"); reason != "" {
			sendErr(errChan, fmt.Errorf("%w: %s", ErrAuthorizationDenied, reason))
			_, _ = fmt.Fprint(w, "<html><body><h1>Authorization denied</h1><p>You can close this window.</p></body></html>")
			return
		}
		if query.Get("state") != state {
			sendErr(errChan, errors.New("authorization state mismatch"))
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}

		code := query.Get("code")
		if code == "" {
			sendErr(errChan, errors.New("no code in callback"))
			_, _ = fmt.Fprint(w, "<html><body><h1>Error</h1><p>No authorization code received.</p></body></html>")
			return
		}

		select {
		case codeChan <- code:
		default:
		}
		_, _ = fmt.Fprint(w, "<html><body><h1>Success!</h1><p>You can close this window and return to the terminal.</p></body></html>")
	})
}

func sendErr(errChan chan<- error, err error) {
	select {
	case errChan <- err:
	default:
	}
}
