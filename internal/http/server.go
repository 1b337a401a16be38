package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dropDatabas3/userauth/internal/observability/logger"
)

// ShutdownTimeout acota el drenado de requests en vuelo.
const ShutdownTimeout = 15 * time.Second

func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Start escucha en addr hasta que ctx se cancele; después hace shutdown
// ordenado. Devuelve nil en un cierre limpio.
func Start(ctx context.Context, addr string, handler http.Handler) error {
	srv := newServer(addr, handler)
	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("http server listening", logger.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.L().Info("http server shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
