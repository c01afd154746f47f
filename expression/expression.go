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

// Package expression implements the query predicate algebra understood by the
// watchman daemon. An Expression is an immutable tree of predicate terms that
// compiles to the daemon's nested-JSON-array grammar, e.g.
//
//	["allof", ["suffix", "py"], ["not", ["empty"]]]
//
// Expressions are built with the constructor functions in this package and
// rendered with Compile. A compiled expression never changes the tree, so a
// single tree may be compiled concurrently by multiple callers.
package expression

import (
	"errors"
	"time"

	"github.com/valyala/fastjson"
)

// ClockSpec selects which timestamp field of a change anchors a "since"
// comparison.
type ClockSpec int

const (
	ClockSpecDefault ClockSpec = iota
	ClockSpecOClock
	ClockSpecCClock
	ClockSpecMTime
	ClockSpecCTime
)

// clockSpecNames is indexed by ClockSpec. The zero entry is unused since the
// default clockspec is simply omitted from the compiled form.
var clockSpecNames = [...]string{
	"",
	"oclock",
	"cclock",
	"mtime",
	"ctime",
}

// Scope selects whether a name or match predicate applies to the full
// relative path of a file or only its final path component.
type Scope int

const (
	ScopeDefault Scope = iota
	ScopeBasename
	ScopeWholename
)

// scopeNames is indexed by Scope. The zero entry is unused since the default
// scope is simply omitted from the compiled form.
var scopeNames = [...]string{
	"",
	"basename",
	"wholename",
}

var (
	ErrEmptyUnion = errors.New(
		"expression: allof/anyof requires at least one child expression",
	)
	ErrEmptyNames = errors.New(
		"expression: name/iname requires at least one name",
	)
)

// Expression is a single node in a query predicate tree. The set of
// implementations is fixed to the terms the daemon understands, so outside
// packages cannot add variants.
type Expression interface {
	compile(a *fastjson.Arena) *fastjson.Value
}

// Compile renders expr into the daemon's wire grammar using the provided
// arena. The returned value is owned by the arena and remains valid until the
// arena is reset.
func Compile(a *fastjson.Arena, expr Expression) *fastjson.Value {
	return expr.compile(a)
}

// MarshalString compiles expr and returns its compact JSON encoding. It is
// intended for logging and diagnostics.
func MarshalString(expr Expression) string {
	var a fastjson.Arena
	return string(expr.compile(&a).MarshalTo(nil))
}

type unionExpr struct {
	tag      string
	children []Expression
}

func (e *unionExpr) compile(a *fastjson.Arena) *fastjson.Value {
	arr := a.NewArray()
	arr.SetArrayItem(0, a.NewString(e.tag))
	for i, child := range e.children {
		arr.SetArrayItem(i+1, child.compile(a))
	}
	return arr
}

func newUnion(tag string, children []Expression) (Expression, error) {
	if len(children) == 0 {
		return nil, ErrEmptyUnion
	}
	// Copy the child list so the tree cannot be mutated through the caller's
	// slice after construction
	owned := make([]Expression, len(children))
	copy(owned, children)
	return &unionExpr{tag: tag, children: owned}, nil
}

// AllOf matches files that match every child expression. At least one child
// is required.
func AllOf(children ...Expression) (Expression, error) {
	return newUnion("allof", children)
}

// AnyOf matches files that match at least one child expression. At least one
// child is required.
func AnyOf(children ...Expression) (Expression, error) {
	return newUnion("anyof", children)
}

type notExpr struct {
	child Expression
}

func (e *notExpr) compile(a *fastjson.Arena) *fastjson.Value {
	arr := a.NewArray()
	arr.SetArrayItem(0, a.NewString("not"))
	arr.SetArrayItem(1, e.child.compile(a))
	return arr
}

// Not matches files that do not match the child expression.
func Not(child Expression) Expression {
	return &notExpr{child: child}
}

// The four stateless terms carry no data, so they are represented as
// zero-sized types rather than shared singletons.
type (
	trueExpr   struct{}
	falseExpr  struct{}
	emptyExpr  struct{}
	existsExpr struct{}
)

func (trueExpr) compile(a *fastjson.Arena) *fastjson.Value {
	return markerTerm(a, "true")
}

func (falseExpr) compile(a *fastjson.Arena) *fastjson.Value {
	return markerTerm(a, "false")
}

func (emptyExpr) compile(a *fastjson.Arena) *fastjson.Value {
	return markerTerm(a, "empty")
}

func (existsExpr) compile(a *fastjson.Arena) *fastjson.Value {
	return markerTerm(a, "exists")
}

func markerTerm(a *fastjson.Arena, tag string) *fastjson.Value {
	arr := a.NewArray()
	arr.SetArrayItem(0, a.NewString(tag))
	return arr
}

// True matches every file.
func True() Expression { return trueExpr{} }

// False matches no files.
func False() Expression { return falseExpr{} }

// Empty matches zero-length files.
func Empty() Expression { return emptyExpr{} }

// Exists matches files that currently exist.
func Exists() Expression { return existsExpr{} }

type sinceExpr struct {
	clock   string
	time    time.Time
	hasTime bool
	spec    ClockSpec
}

func (e *sinceExpr) compile(a *fastjson.Arena) *fastjson.Value {
	arr := a.NewArray()
	arr.SetArrayItem(0, a.NewString("since"))
	if e.hasTime {
		arr.SetArrayItem(1, a.NewNumberInt(int(e.time.Unix())))
	} else {
		arr.SetArrayItem(1, a.NewString(e.clock))
	}
	if e.spec != ClockSpecDefault {
		arr.SetArrayItem(2, a.NewString(clockSpecNames[e.spec]))
	}
	return arr
}

// SinceClock matches files changed since the given clock cursor, an opaque
// token returned by a previous query.
func SinceClock(cursor string, spec ClockSpec) Expression {
	return &sinceExpr{clock: cursor, spec: spec}
}

// SinceTime matches files changed since the given absolute time, compared at
// one-second granularity.
func SinceTime(t time.Time, spec ClockSpec) Expression {
	return &sinceExpr{time: t, hasTime: true, spec: spec}
}

type suffixExpr struct {
	suffix string
}

func (e *suffixExpr) compile(a *fastjson.Arena) *fastjson.Value {
	arr := a.NewArray()
	arr.SetArrayItem(0, a.NewString("suffix"))
	arr.SetArrayItem(1, a.NewString(e.suffix))
	return arr
}

// Suffix matches files whose name ends with the given suffix, e.g. "py".
func Suffix(suffix string) Expression {
	return &suffixExpr{suffix: suffix}
}

type matchExpr struct {
	tag     string
	pattern string
	scope   Scope
}

func (e *matchExpr) compile(a *fastjson.Arena) *fastjson.Value {
	arr := a.NewArray()
	arr.SetArrayItem(0, a.NewString(e.tag))
	arr.SetArrayItem(1, a.NewString(e.pattern))
	if e.scope != ScopeDefault {
		arr.SetArrayItem(2, a.NewString(scopeNames[e.scope]))
	}
	return arr
}

// Match matches files against a case-sensitive glob pattern.
func Match(pattern string, scope Scope) Expression {
	return &matchExpr{tag: "match", pattern: pattern, scope: scope}
}

// IMatch matches files against a case-insensitive glob pattern.
func IMatch(pattern string, scope Scope) Expression {
	return &matchExpr{tag: "imatch", pattern: pattern, scope: scope}
}

// Pcre matches files against a case-sensitive regular expression.
func Pcre(pattern string, scope Scope) Expression {
	return &matchExpr{tag: "pcre", pattern: pattern, scope: scope}
}

// IPcre matches files against a case-insensitive regular expression.
func IPcre(pattern string, scope Scope) Expression {
	return &matchExpr{tag: "ipcre", pattern: pattern, scope: scope}
}

type nameExpr struct {
	tag   string
	names []string
	scope Scope
}

func (e *nameExpr) compile(a *fastjson.Arena) *fastjson.Value {
	arr := a.NewArray()
	arr.SetArrayItem(0, a.NewString(e.tag))
	// A single name collapses to a bare string rather than a one-element array
	if len(e.names) == 1 {
		arr.SetArrayItem(1, a.NewString(e.names[0]))
	} else {
		names := a.NewArray()
		for i, name := range e.names {
			names.SetArrayItem(i, a.NewString(name))
		}
		arr.SetArrayItem(1, names)
	}
	if e.scope != ScopeDefault {
		arr.SetArrayItem(2, a.NewString(scopeNames[e.scope]))
	}
	return arr
}

func newName(tag string, names []string, scope Scope) (Expression, error) {
	if len(names) == 0 {
		return nil, ErrEmptyNames
	}
	owned := make([]string, len(names))
	copy(owned, names)
	return &nameExpr{tag: tag, names: owned, scope: scope}, nil
}

// Name matches files whose name is exactly one of the given names,
// case-sensitively. At least one name is required.
func Name(names []string, scope Scope) (Expression, error) {
	return newName("name", names, scope)
}

// IName matches files whose name is exactly one of the given names,
// case-insensitively. At least one name is required.
func IName(names []string, scope Scope) (Expression, error) {
	return newName("iname", names, scope)
}

type typeExpr struct {
	kind byte
}

func (e *typeExpr) compile(a *fastjson.Arena) *fastjson.Value {
	arr := a.NewArray()
	arr.SetArrayItem(0, a.NewString("type"))
	arr.SetArrayItem(1, a.NewString(string(e.kind)))
	return arr
}

// Type matches files of the given filesystem type, identified by a single
// character such as 'f' (regular file), 'd' (directory), or 'l' (symlink).
func Type(kind byte) Expression {
	return &typeExpr{kind: kind}
}
