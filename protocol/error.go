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

package protocol

import (
	"errors"
	"fmt"

	"github.com/valyala/fastjson"
)

// ErrConnectionClosed is returned when an operation is attempted on a
// connection that has already been closed
var ErrConnectionClosed = errors.New("watchman: connection is closed")

// ConnectionError indicates that the transport could not be established or
// was closed unexpectedly
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("watchman: connection error during %s: %s", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ProtocolError indicates malformed or incomplete JSON on the wire, or a
// missing trailing newline after a response value
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("watchman: protocol error: %s: %s", e.Reason, e.Err)
	}
	return fmt.Sprintf("watchman: protocol error: %s", e.Reason)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// SemanticError indicates that the daemon's response carried an "error" key.
// Message is the daemon-supplied text
type SemanticError struct {
	Message string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("watchman: daemon error: %s", e.Message)
}

// SchemaError indicates that a response was syntactically valid JSON but was
// missing a required key or had a key of the wrong type. Value holds a dump
// of the offending JSON value to aid diagnosis
type SchemaError struct {
	Reason string
	Value  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("watchman: %s: %s", e.Reason, e.Value)
}

// errMissingKey marks a required key that was absent from a response object
var errMissingKey = errors.New("missing key")

// newSchemaError builds a SchemaError embedding a dump of the offending
// value. A nil value means a required key was absent entirely
func newSchemaError(reason string, v *fastjson.Value) *SchemaError {
	dump := "(missing)"
	if v != nil {
		dump = v.String()
	}
	return &SchemaError{Reason: reason, Value: dump}
}
