package l10n

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"
)

type driver interface {
	ListenAndServe(addr string, h http.Handler) error
	Shutdown(ctx context.Context) error
}

type noopDriver struct{}

func (t *noopDriver) ListenAndServe(_ string, _ http.Handler) error {
	return nil
}

func (t *noopDriver) Shutdown(_ context.Context) error {
	return nil
}

type defaultDriver struct {
	errorGroup errgroup.Group
	httpServer *http.Server
}

// ListenAndServe sets the address and handler on the http.Server and blocks
// until it stops. A graceful shutdown is not reported as an error.
func (dd *defaultDriver) ListenAndServe(addr string, h http.Handler) error {
	dd.httpServer.Addr = addr
	dd.httpServer.Handler = h

	dd.errorGroup.Go(func() error {
		err := dd.httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	return dd.errorGroup.Wait()
}

func (dd *defaultDriver) Shutdown(ctx context.Context) error {
	return dd.httpServer.Shutdown(ctx)
}
