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
	"fmt"

	"github.com/LaudateCorpus1/libwatchman/expression"
	"github.com/LaudateCorpus1/libwatchman/protocol"
	"github.com/go-kit/log/level"
)

// Watch asks the daemon to begin watching the given root path.
func (c *Connection) Watch(path string) error {
	return c.simpleCommand([]string{"watch", path})
}

// WatchDel asks the daemon to stop watching the given root path.
func (c *Connection) WatchDel(path string) error {
	return c.simpleCommand([]string{"watch-del", path})
}

// simpleCommand performs one exchange for a command that carries no payload
// beyond success or failure.
func (c *Connection) simpleCommand(tokens []string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err := c.ready(); err != nil {
		return err
	}
	level.Debug(c.logger).Log("msg", "sending command", "command", tokens[0])
	if err := c.codec.WriteSimpleCommand(tokens); err != nil {
		return err
	}
	c.applyReadDeadline()
	if err := c.codec.ReadAndHandleErrors(); err != nil {
		level.Error(c.logger).Log(
			"msg", "command failed",
			"command", tokens[0],
			"err", err,
		)
		return err
	}
	return nil
}

// WatchList returns the roots the daemon is currently watching.
func (c *Connection) WatchList() (*protocol.WatchList, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err := c.ready(); err != nil {
		return nil, err
	}
	level.Debug(c.logger).Log("msg", "sending command", "command", "watch-list")
	if err := c.codec.WriteSimpleCommand([]string{"watch-list"}); err != nil {
		return nil, err
	}
	c.applyReadDeadline()
	v, err := c.codec.ReadValue()
	if err != nil {
		return nil, err
	}
	list, err := protocol.DecodeWatchList(v)
	if err != nil {
		level.Error(c.logger).Log(
			"msg", "command failed",
			"command", "watch-list",
			"err", err,
		)
		return nil, err
	}
	level.Debug(c.logger).Log("msg", "watch-list", "roots", len(list.Roots))
	return list, nil
}

// Query runs a file query against the given watched root. The expression
// selects which files match and the fields mask selects which attributes are
// populated on each returned Stat.
func (c *Connection) Query(
	root string,
	expr expression.Expression,
	fields Fields,
) (*protocol.QueryResult, error) {
	if expr == nil {
		return nil, fmt.Errorf("watchman: query requires a non-nil expression")
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err := c.ready(); err != nil {
		return nil, err
	}
	level.Debug(c.logger).Log(
		"msg", "sending command",
		"command", "query",
		"root", root,
		"expression", expression.MarshalString(expr),
	)
	if err := c.codec.WriteQueryCommand(root, expr, fields.Names()); err != nil {
		return nil, err
	}
	c.applyReadDeadline()
	v, err := c.codec.ReadValue()
	if err != nil {
		return nil, err
	}
	res, err := protocol.DecodeQueryResult(v)
	if err != nil {
		level.Error(c.logger).Log(
			"msg", "command failed",
			"command", "query",
			"err", err,
		)
		return nil, err
	}
	level.Debug(c.logger).Log(
		"msg", "query result",
		"files", len(res.Files),
		"clock", res.Clock,
		"fresh", res.IsFreshInstance,
	)
	return res, nil
}
