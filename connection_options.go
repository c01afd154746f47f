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

package watchman

import (
	"net"
	"time"

	"github.com/go-kit/log"
)

// ConnectionOptionFunc is a type that represents functions that modify the
// Connection config
type ConnectionOptionFunc func(*Connection)

// WithConnection specifies an existing connection to use. If none is
// provided, the Dial() function can be used to create one later, or Connect()
// will locate the daemon's socket and dial it
func WithConnection(conn net.Conn) ConnectionOptionFunc {
	return func(c *Connection) {
		c.conn = conn
	}
}

// WithSocketPath specifies the daemon's unix socket path, skipping the
// "watchman get-sockname" discovery step in Connect()
func WithSocketPath(path string) ConnectionOptionFunc {
	return func(c *Connection) {
		c.socketPath = path
	}
}

// WithLogger specifies the logger to use. If none is provided, logging is
// disabled
func WithLogger(logger log.Logger) ConnectionOptionFunc {
	return func(c *Connection) {
		c.logger = logger
	}
}

// WithDialTimeout specifies a timeout for socket discovery and dialing. The
// default is no timeout
func WithDialTimeout(timeout time.Duration) ConnectionOptionFunc {
	return func(c *Connection) {
		c.dialTimeout = timeout
	}
}

// WithReadTimeout specifies a per-response read deadline. The default is no
// deadline: a read blocks until the daemon responds
func WithReadTimeout(timeout time.Duration) ConnectionOptionFunc {
	return func(c *Connection) {
		c.readTimeout = timeout
	}
}
