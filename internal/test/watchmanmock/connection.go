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

// Package watchmanmock mocks a watchman daemon for tests by playing back a
// scripted conversation over an in-memory connection.
package watchmanmock

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// EntryType is an enum of the conversation entry types
type EntryType int

const (
	EntryTypeNone   EntryType = 0
	EntryTypeInput  EntryType = 1
	EntryTypeOutput EntryType = 2
	EntryTypeClose  EntryType = 3
)

// ConversationEntry is one scripted step of a daemon conversation. Input
// entries assert the exact command line the client sends; output entries
// write a response. Output is a JSON value sent with the protocol's trailing
// newline appended, while RawOutput is written verbatim so tests can exercise
// malformed framing.
type ConversationEntry struct {
	Type         EntryType
	InputCommand string
	Output       string
	RawOutput    []byte
}

// Connection mocks a watchman daemon connection
type Connection struct {
	mockConn     net.Conn
	conn         net.Conn
	conversation []ConversationEntry
}

// NewConnection returns a new Connection with the provided conversation
// entries. The returned net.Conn is the client side; the daemon side is
// driven by an async goroutine that panics on any deviation from the script
func NewConnection(conversation []ConversationEntry) net.Conn {
	c := &Connection{
		conversation: conversation,
	}
	c.conn, c.mockConn = net.Pipe()
	// Start async conversation handler
	go c.asyncLoop()
	return c
}

// Read provides a proxy to the client-side connection's Read function. This is needed to satisfy the net.Conn interface
func (c *Connection) Read(b []byte) (n int, err error) {
	return c.conn.Read(b)
}

// Write provides a proxy to the client-side connection's Write function. This is needed to satisfy the net.Conn interface
func (c *Connection) Write(b []byte) (n int, err error) {
	return c.conn.Write(b)
}

// Close closes both sides of the connection. This is needed to satisfy the net.Conn interface
func (c *Connection) Close() error {
	if err := c.conn.Close(); err != nil {
		return err
	}
	if err := c.mockConn.Close(); err != nil {
		return err
	}
	return nil
}

// LocalAddr provides a proxy to the client-side connection's LocalAddr function. This is needed to satisfy the net.Conn interface
func (c *Connection) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr provides a proxy to the client-side connection's RemoteAddr function. This is needed to satisfy the net.Conn interface
func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// SetDeadline provides a proxy to the client-side connection's SetDeadline function. This is needed to satisfy the net.Conn interface
func (c *Connection) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// SetReadDeadline provides a proxy to the client-side connection's SetReadDeadline function. This is needed to satisfy the net.Conn interface
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// SetWriteDeadline provides a proxy to the client-side connection's SetWriteDeadline function. This is needed to satisfy the net.Conn interface
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

func (c *Connection) asyncLoop() {
	rd := bufio.NewReader(c.mockConn)
	for _, entry := range c.conversation {
		switch entry.Type {
		case EntryTypeInput:
			if err := c.processInputEntry(rd, entry); err != nil {
				panic(err.Error())
			}
		case EntryTypeOutput:
			if err := c.processOutputEntry(entry); err != nil {
				panic(fmt.Sprintf("output error: %s", err))
			}
		case EntryTypeClose:
			// Close only the daemon side so the client observes EOF
			c.mockConn.Close()
		default:
			panic(
				fmt.Sprintf(
					"unknown conversation entry type: %d: %#v",
					entry.Type,
					entry,
				),
			)
		}
	}
}

func (c *Connection) processInputEntry(
	rd *bufio.Reader,
	entry ConversationEntry,
) error {
	line, err := rd.ReadString('\n')
	if err != nil {
		// The client hung up mid-conversation; the test will notice on its own
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
			return nil
		}
		return fmt.Errorf("input read error: %s", err)
	}
	cmd := strings.TrimSuffix(line, "\n")
	if cmd != entry.InputCommand {
		return fmt.Errorf(
			"input command did not match expected value: expected %q, got %q",
			entry.InputCommand,
			cmd,
		)
	}
	return nil
}

func (c *Connection) processOutputEntry(entry ConversationEntry) error {
	data := entry.RawOutput
	if data == nil {
		data = append([]byte(entry.Output), '\n')
	}
	if _, err := c.mockConn.Write(data); err != nil {
		return err
	}
	return nil
}
