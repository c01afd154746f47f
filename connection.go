// Copyright 2024 The libwatchman Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package watchman implements a client for the watchman file-watching
// daemon's line-delimited JSON protocol.
//
// A Connection owns one byte stream to the daemon and performs strictly
// synchronous request/response exchanges over it: watch management commands,
// watch listing, and file queries expressed through the expression package's
// predicate algebra.
//
// This package is the main entry point into this library. The expression and
// protocol packages can be used on their own, but that is not a primary
// design goal.
package watchman

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/LaudateCorpus1/libwatchman/protocol"
	"github.com/go-kit/log"
)

// The Connection type wraps a net.Conn and handles communication with a
// watchman daemon over that connection. A Connection supports exactly one
// in-flight command at a time; exchanges are serialized internally, so
// concurrent callers block rather than corrupt framing.
type Connection struct {
	conn        net.Conn
	codec       *protocol.Codec
	logger      log.Logger
	socketPath  string
	dialTimeout time.Duration
	readTimeout time.Duration
	mutex       sync.Mutex
	onceClose   sync.Once
	closed      bool
}

// NewConnection returns a new Connection object with the specified options.
// If no existing connection was provided via WithConnection, the transport
// can be established later with Dial.
func NewConnection(options ...ConnectionOptionFunc) (*Connection, error) {
	c := &Connection{
		logger: log.NewNopLogger(),
	}
	// Apply provided options functions
	for _, option := range options {
		option(c)
	}
	if c.conn != nil {
		c.codec = protocol.NewCodec(c.conn)
	}
	return c, nil
}

// Connect returns a Connection with an established transport. If no existing
// connection or socket path was provided through options, the daemon's socket
// is located by invoking "watchman get-sockname".
func Connect(options ...ConnectionOptionFunc) (*Connection, error) {
	c, err := NewConnection(options...)
	if err != nil {
		return nil, err
	}
	if c.conn != nil {
		return c, nil
	}
	sockPath := c.socketPath
	if sockPath == "" {
		ctx := context.Background()
		if c.dialTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.dialTimeout)
			defer cancel()
		}
		sockPath, err = GetSockName(ctx)
		if err != nil {
			return nil, err
		}
	}
	if err := c.Dial("unix", sockPath); err != nil {
		return nil, err
	}
	return c, nil
}

// Dial will establish a connection using the specified protocol and address.
// These parameters are passed to the [net.Dial] func. An error will be
// returned if the connection fails or one was already established.
func (c *Connection) Dial(proto string, address string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.conn != nil {
		return fmt.Errorf("a connection was already established")
	}
	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.Dial(proto, address)
	if err != nil {
		return &protocol.ConnectionError{Op: "dial", Err: err}
	}
	c.conn = conn
	c.codec = protocol.NewCodec(conn)
	return nil
}

// Close will shut down the connection to the daemon. Closing an
// already-closed Connection is a no-op.
func (c *Connection) Close() error {
	var err error
	c.onceClose.Do(func() {
		c.mutex.Lock()
		defer c.mutex.Unlock()
		c.closed = true
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

// ready reports whether the connection can perform an exchange. Must be
// called with the mutex held.
func (c *Connection) ready() error {
	if c.closed {
		return protocol.ErrConnectionClosed
	}
	if c.conn == nil {
		return &protocol.ConnectionError{
			Op:  "send",
			Err: fmt.Errorf("no connection established"),
		}
	}
	return nil
}

// applyReadDeadline arms the configured read timeout for the next response.
// Must be called with the mutex held.
func (c *Connection) applyReadDeadline() {
	if c.readTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
}
