package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/reshuffle/internal/shared"
)

// CallbackServer runs an [OAuthHandler] on a local address until one callback arrives.
type CallbackServer struct {
	handler *OAuthHandler
	srv     *http.Server
	addr    string
	errs    chan error
	logger  *log.Logger
}

// StartCallbackServer binds addr and starts serving handler in the background.
//
// Binding happens before returning, so the browser can be opened as soon as this succeeds.
func StartCallbackServer(addr string, handler *OAuthHandler, logger *log.Logger) (*CallbackServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	router := NewBasicRouter()
	router.Use(LogRequests(logger))
	router.Handler(handler)

	cs := &CallbackServer{
		handler: handler,
		srv:     &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second},
		addr:    ln.Addr().String(),
		errs:    make(chan error, 1),
		logger:  logger,
	}

	go func() {
		logger.Debugf("OAuth callback server listening on %s", cs.addr)
		if err := cs.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cs.errs <- err
		}
	}()

	return cs, nil
}

// Addr returns the bound address, useful when addr used port 0.
func (cs *CallbackServer) Addr() string {
	return cs.addr
}

// Wait blocks until the callback is handled, the server fails, timeout elapses or ctx is done.
// The server is shut down before Wait returns.
func (cs *CallbackServer) Wait(ctx context.Context, timeout time.Duration) (*oauth2.Token, error) {
	defer cs.shutdown()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result OAuthResult
	select {
	case result = <-cs.handler.Result():
	case err := <-cs.errs:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}

func (cs *CallbackServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cs.srv.Shutdown(ctx); err != nil {
		cs.logger.Warn("error shutting down server", "error", err)
	}
}
