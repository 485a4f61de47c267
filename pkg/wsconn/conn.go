// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package wsconn adapts a WebSocket to the byte stream an MQTT client
// expects: binary frames in, binary frames out.
package wsconn

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LeeDigitalWorks/zapctl/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Subprotocol is offered on every dial.
const Subprotocol = "mqtt"

const closeWait = 5 * time.Second

// ErrTextFrame is returned from Err when the peer sent a text frame.
var ErrTextFrame = errors.New("wsconn: unsupported text frame")

// Options configure Dial. The zero value dials wss with the default dialer.
type Options struct {
	// Scheme is "wss" unless set.
	Scheme string
	Header http.Header
	// Dialer is copied; its Subprotocols are replaced.
	Dialer *websocket.Dialer
	// OnRead is installed before the read loop starts.
	OnRead func([]byte)
	Logger *zerolog.Logger
}

// Conn is an open connection. Reads are delivered to the OnRead callback
// from a single goroutine. Writes may come from any goroutine.
type Conn struct {
	ws  *websocket.Conn
	log zerolog.Logger

	onRead atomic.Pointer[func([]byte)]

	writeMu sync.Mutex
	closing atomic.Bool

	done chan struct{}
	once sync.Once
	err  error
}

// Dial opens scheme://hostname:port offering the mqtt subprotocol.
func Dial(ctx context.Context, hostname string, port int, opts Options) (*Conn, error) {
	scheme := opts.Scheme
	if scheme == "" {
		scheme = "wss"
	}
	dialer := *websocket.DefaultDialer
	if opts.Dialer != nil {
		dialer = *opts.Dialer
	}
	dialer.Subprotocols = []string{Subprotocol}

	log := *logger.Ctx(ctx)
	if opts.Logger != nil {
		log = *opts.Logger
	}
	url := scheme + "://" + net.JoinHostPort(hostname, strconv.Itoa(port))

	ws, resp, err := dialer.DialContext(ctx, url, opts.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("wsconn: dial %s: status %d: %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("wsconn: dial %s: %w", url, err)
	}
	log.Debug().Str("url", url).Str("subprotocol", ws.Subprotocol()).Msg("ws open")

	c := &Conn{ws: ws, log: log, done: make(chan struct{})}
	if opts.OnRead != nil {
		c.OnRead(opts.OnRead)
	}
	go c.readLoop()
	return c, nil
}

// OnRead replaces the read callback. Frames that arrive with no callback
// set are dropped.
func (c *Conn) OnRead(fn func([]byte)) {
	c.onRead.Store(&fn)
}

// Write sends b as one binary frame.
func (c *Conn) Write(b []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return 0, err
	}
	return len(b), nil
}

// Close starts a normal close handshake and releases the socket.
func (c *Conn) Close() error {
	if !c.closing.CompareAndSwap(false, true) {
		return nil
	}
	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	err := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
	c.writeMu.Unlock()

	select {
	case <-c.done:
	case <-time.After(closeWait):
	}
	if cerr := c.ws.Close(); err == nil && !errors.Is(cerr, net.ErrClosed) {
		err = cerr
	}
	if errors.Is(err, websocket.ErrCloseSent) {
		err = nil
	}
	return err
}

// Done is closed when the read loop ends.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err is the reason the connection ended. It is nil for a normal close and
// only meaningful once Done is closed.
func (c *Conn) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

func (c *Conn) readLoop() {
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			if c.closing.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = nil
			}
			c.finish(err)
			return
		}
		if mt != websocket.BinaryMessage {
			c.finish(ErrTextFrame)
			return
		}
		c.log.Trace().Int("bytes", len(data)).Msg("ws message")
		if fn := c.onRead.Load(); fn != nil {
			(*fn)(data)
		}
	}
}

func (c *Conn) finish(err error) {
	c.once.Do(func() {
		if err != nil {
			c.log.Debug().Err(err).Msg("ws error")
		} else {
			c.log.Debug().Msg("ws close")
		}
		_ = c.ws.Close()
		c.err = err
		close(c.done)
	})
}
