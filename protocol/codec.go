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

// Package protocol implements the watchman daemon's wire protocol: commands
// and responses are whole JSON values delimited by newlines on a single byte
// stream. Commands are JSON arrays whose first element is the command name;
// responses are JSON objects, with an "error" key signalling failure.
//
// The Codec assumes strictly synchronous request/response use: one command is
// written and one response is read before the next command. Interleaving
// exchanges corrupts framing.
package protocol

import (
	"bufio"
	"errors"
	"io"

	"github.com/LaudateCorpus1/libwatchman/expression"
	"github.com/valyala/fastjson"
)

// Codec frames commands and responses over a byte stream. It owns a parser
// and arena that are reused across exchanges, so values returned by ReadValue
// are only valid until the next call.
type Codec struct {
	rd     *bufio.Reader
	wr     *bufio.Writer
	parser fastjson.Parser
	arena  fastjson.Arena
}

// NewCodec returns a Codec framing commands and responses over rw.
func NewCodec(rw io.ReadWriter) *Codec {
	return &Codec{
		rd: bufio.NewReader(rw),
		wr: bufio.NewWriter(rw),
	}
}

// WriteValue serializes v as compact JSON followed by a single newline and
// flushes, so the daemon observes the command boundary immediately.
func (c *Codec) WriteValue(v *fastjson.Value) error {
	buf := v.MarshalTo(nil)
	buf = append(buf, '\n')
	if _, err := c.wr.Write(buf); err != nil {
		return &ProtocolError{Reason: "failed to send command", Err: err}
	}
	if err := c.wr.Flush(); err != nil {
		return &ProtocolError{Reason: "failed to send command", Err: err}
	}
	return nil
}

// WriteSimpleCommand sends a command consisting only of string tokens, such
// as ["watch-list"] or ["watch", "/some/path"].
func (c *Codec) WriteSimpleCommand(tokens []string) error {
	c.arena.Reset()
	arr := c.arena.NewArray()
	for i, tok := range tokens {
		arr.SetArrayItem(i, c.arena.NewString(tok))
	}
	return c.WriteValue(arr)
}

// WriteQueryCommand sends a query command for the given watched root:
//
//	["query", root, {"expression": <compiled expr>, "fields": [...]}]
func (c *Codec) WriteQueryCommand(
	root string,
	expr expression.Expression,
	fields []string,
) error {
	c.arena.Reset()
	a := &c.arena
	cmd := a.NewArray()
	cmd.SetArrayItem(0, a.NewString("query"))
	cmd.SetArrayItem(1, a.NewString(root))
	params := a.NewObject()
	params.Set("expression", expression.Compile(a, expr))
	fieldsArr := a.NewArray()
	for i, field := range fields {
		fieldsArr.SetArrayItem(i, a.NewString(field))
	}
	params.Set("fields", fieldsArr)
	cmd.SetArrayItem(2, params)
	return c.WriteValue(cmd)
}

// ReadValue reads exactly one JSON value and its trailing newline from the
// stream. End-of-stream before any data is a ConnectionError; a value without
// its trailing newline, or an unparseable value, is a ProtocolError. The
// returned value is valid until the next ReadValue call.
func (c *Codec) ReadValue() (*fastjson.Value, error) {
	line, err := c.rd.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return nil, &ProtocolError{Reason: "no newline at end of reply"}
		}
		return nil, &ConnectionError{Op: "read", Err: err}
	}
	v, perr := c.parser.ParseBytes(line[:len(line)-1])
	if perr != nil {
		return nil, &ProtocolError{
			Reason: "unparseable or empty result from watchman",
			Err:    perr,
		}
	}
	return v, nil
}

// ReadAndHandleErrors reads one response for a command that carries no
// payload beyond success or failure, such as watch or watch-del.
func (c *Codec) ReadAndHandleErrors() error {
	obj, err := c.ReadValue()
	if err != nil {
		return err
	}
	return CheckResponse(obj)
}

// CheckResponse validates the shape every response shares: it must be a JSON
// object, and an "error" key marks the command as failed with the
// daemon-supplied message.
func CheckResponse(v *fastjson.Value) error {
	if v.Type() != fastjson.TypeObject {
		return newSchemaError("got non-object result from watchman", v)
	}
	if errVal := v.Get("error"); errVal != nil {
		msg, err := errVal.StringBytes()
		if err != nil {
			return newSchemaError("error value is not a string", v)
		}
		return &SemanticError{Message: string(msg)}
	}
	return nil
}
