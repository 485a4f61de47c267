// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package wsconn

import (
	"net"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newServer starts a TLS websocket server that runs handle on every
// upgraded connection.
func newServer(t *testing.T, handle func(*websocket.Conn)) (*httptest.Server, Options, string, int) {
	t.Helper()
	upgrader := websocket.Upgrader{Subprotocols: []string{Subprotocol}}
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, slices.Contains(websocket.Subprotocols(r), Subprotocol))
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		handle(ws)
	}))
	t.Cleanup(srv.Close)

	tlsConfig := srv.Client().Transport.(*http.Transport).TLSClientConfig
	addr := srv.Listener.Addr().(*net.TCPAddr)
	return srv, Options{Dialer: &websocket.Dialer{TLSClientConfig: tlsConfig}}, addr.IP.String(), addr.Port
}

func echo(ws *websocket.Conn) {
	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		if err := ws.WriteMessage(mt, data); err != nil {
			return
		}
	}
}

func waitDone(t *testing.T, c *Conn) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("connection did not finish")
	}
}

func TestEchoRoundTrip(t *testing.T) {
	t.Parallel()

	_, opts, host, port := newServer(t, echo)
	got := make(chan []byte, 2)
	opts.OnRead = func(b []byte) { got <- b }

	c, err := Dial(t.Context(), host, port, opts)
	require.NoError(t, err)
	assert.Equal(t, Subprotocol, c.ws.Subprotocol())

	n, err := c.Write([]byte{0x10, 0x02, 0x00, 0x04})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	select {
	case b := <-got:
		assert.Equal(t, []byte{0x10, 0x02, 0x00, 0x04}, b)
	case <-time.After(5 * time.Second):
		t.Fatal("no echo")
	}

	require.NoError(t, c.Close())
	waitDone(t, c)
	assert.NoError(t, c.Err())
	assert.NoError(t, c.Close(), "second close is a no-op")
}

func TestTextFrameRejected(t *testing.T) {
	t.Parallel()

	_, opts, host, port := newServer(t, func(ws *websocket.Conn) {
		_ = ws.WriteMessage(websocket.TextMessage, []byte("hello"))
		_, _, _ = ws.ReadMessage()
	})

	c, err := Dial(t.Context(), host, port, opts)
	require.NoError(t, err)
	waitDone(t, c)
	assert.ErrorIs(t, c.Err(), ErrTextFrame)
}

func TestPeerCloseIsNormal(t *testing.T) {
	t.Parallel()

	_, opts, host, port := newServer(t, func(ws *websocket.Conn) {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_, _, _ = ws.ReadMessage()
	})

	c, err := Dial(t.Context(), host, port, opts)
	require.NoError(t, err)
	waitDone(t, c)
	assert.NoError(t, c.Err())
}

func TestErrBeforeDone(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	_, opts, host, port := newServer(t, func(ws *websocket.Conn) {
		<-release
	})

	c, err := Dial(t.Context(), host, port, opts)
	require.NoError(t, err)
	assert.NoError(t, c.Err())
	select {
	case <-c.Done():
		t.Fatal("done before close")
	default:
	}
	close(release)
	waitDone(t, c)
}

func TestDialRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewTLSServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	addr := srv.Listener.Addr().(*net.TCPAddr)
	tlsConfig := srv.Client().Transport.(*http.Transport).TLSClientConfig

	_, err := Dial(t.Context(), addr.IP.String(), addr.Port, Options{Dialer: &websocket.Dialer{TLSClientConfig: tlsConfig}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
