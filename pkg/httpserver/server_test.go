package httpserver_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekit/pkg/httpserver"
)

func freePort(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestServer(t *testing.T) {
	t.Parallel()

	t.Run("serves requests until context cancel", func(t *testing.T) {
		t.Parallel()

		addr := freePort(t)
		srv := httpserver.New(httpserver.Config{Addr: addr, ShutdownTimeout: time.Second})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- srv.Run(ctx, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "ok")
			}))
		}()

		var resp *http.Response
		var err error
		require.Eventually(t, func() bool {
			resp, err = http.Get("http://" + addr + "/")
			return err == nil
		}, 2*time.Second, 20*time.Millisecond)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, "ok", string(body))

		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Fatal("server did not stop after context cancel")
		}
	})

	t.Run("shutdown is idempotent", func(t *testing.T) {
		t.Parallel()

		addr := freePort(t)
		srv := httpserver.New(httpserver.Config{Addr: addr})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan error, 1)
		go func() {
			done <- srv.Run(ctx, nil)
		}()

		require.Eventually(t, func() bool {
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				return false
			}
			conn.Close()
			return true
		}, 2*time.Second, 20*time.Millisecond)

		require.NoError(t, srv.Shutdown(context.Background()))
		require.NoError(t, srv.Shutdown(context.Background()))

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Fatal("server did not stop after shutdown")
		}
	})
}
