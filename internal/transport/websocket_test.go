package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/rileyhilliard/latensee/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoServer upgrades every request and echoes messages back until the client leaves.
func echoServer(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := Accept(w, r, Options{PingInterval: -1, Logger: logger.Noop()})
		if err != nil {
			return
		}
		defer ws.Close()

		for {
			msg, err := ws.Read(r.Context())
			if err != nil {
				return
			}
			if err := ws.Write(r.Context(), msg); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocket_EchoRoundTrip(t *testing.T) {
	url := echoServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ws, err := Dial(ctx, url, Options{PingInterval: 10 * time.Millisecond, Logger: logger.Noop()})
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.Write(ctx, []byte(`{"call":{"id":"1"}}`)))

	got, err := ws.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"call":{"id":"1"}}`, string(got))
}

func TestWebSocket_ServerCloseIsEOF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := Accept(w, r, Options{PingInterval: -1, Logger: logger.Noop()})
		if err != nil {
			return
		}
		_ = ws.Close()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ws, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), Options{PingInterval: -1, Logger: logger.Noop()})
	require.NoError(t, err)
	defer ws.Close()

	_, err = ws.Read(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestDial_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	_, err := WebSocketDialer{Options: Options{DialTimeout: time.Second}}.Dial(context.Background(), url)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTransport))
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()

	assert.Equal(t, DefaultDialTimeout, o.DialTimeout)
	assert.Equal(t, DefaultPingInterval, o.PingInterval)
	assert.NotNil(t, o.Logger)

	o = Options{PingInterval: -1}.withDefaults()
	assert.Equal(t, time.Duration(-1), o.PingInterval)
}
