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

package watchman_test

import (
	"testing"
	"time"

	watchman "github.com/LaudateCorpus1/libwatchman"
	"github.com/LaudateCorpus1/libwatchman/expression"
	"github.com/LaudateCorpus1/libwatchman/internal/test/watchmanmock"
	"github.com/LaudateCorpus1/libwatchman/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type testInnerFunc func(*testing.T, *watchman.Connection)

func runTest(
	t *testing.T,
	conversation []watchmanmock.ConversationEntry,
	innerFunc testInnerFunc,
) {
	defer goleak.VerifyNone(t)
	mockConn := watchmanmock.NewConnection(conversation)
	conn, err := watchman.NewConnection(
		watchman.WithConnection(mockConn),
	)
	if err != nil {
		t.Fatalf("unexpected error when creating Connection object: %s", err)
	}
	// Run test inner function
	innerFunc(t, conn)
	// Close connection
	if err := conn.Close(); err != nil {
		t.Fatalf("unexpected error when closing Connection object: %s", err)
	}
}

func TestWatch(t *testing.T) {
	conversation := []watchmanmock.ConversationEntry{
		watchmanmock.EntryInput(`["watch","/tmp/project"]`),
		watchmanmock.EntryOutput(
			`{"version":"4.9.0","watch":"/tmp/project"}`,
		),
	}
	runTest(t, conversation, func(t *testing.T, conn *watchman.Connection) {
		if err := conn.Watch("/tmp/project"); err != nil {
			t.Fatalf("received unexpected error: %s", err)
		}
	})
}

func TestWatchDaemonError(t *testing.T) {
	conversation := []watchmanmock.ConversationEntry{
		watchmanmock.EntryInput(`["watch","/tmp/project"]`),
		watchmanmock.EntryOutput(`{"error":"root not watched"}`),
	}
	runTest(t, conversation, func(t *testing.T, conn *watchman.Connection) {
		err := conn.Watch("/tmp/project")
		var semErr *protocol.SemanticError
		require.ErrorAs(t, err, &semErr)
		assert.Equal(t, "root not watched", semErr.Message)
	})
}

func TestWatchDel(t *testing.T) {
	conversation := []watchmanmock.ConversationEntry{
		watchmanmock.EntryInput(`["watch-del","/tmp/project"]`),
		watchmanmock.EntryOutput(
			`{"version":"4.9.0","watch-del":true,"root":"/tmp/project"}`,
		),
	}
	runTest(t, conversation, func(t *testing.T, conn *watchman.Connection) {
		if err := conn.WatchDel("/tmp/project"); err != nil {
			t.Fatalf("received unexpected error: %s", err)
		}
	})
}

func TestWatchList(t *testing.T) {
	conversation := []watchmanmock.ConversationEntry{
		watchmanmock.EntryInput(`["watch-list"]`),
		watchmanmock.EntryOutput(
			`{"version":"4.9.0","roots":["/tmp/project","/srv/data"]}`,
		),
	}
	runTest(t, conversation, func(t *testing.T, conn *watchman.Connection) {
		list, err := conn.WatchList()
		require.NoError(t, err)
		assert.Equal(t, []string{"/tmp/project", "/srv/data"}, list.Roots)
	})
}

func TestQuery(t *testing.T) {
	conversation := []watchmanmock.ConversationEntry{
		watchmanmock.EntryInput(
			`["query","/tmp/project",{"expression":["suffix","py"],"fields":["name","exists"]}]`,
		),
		watchmanmock.EntryOutput(
			`{"version":"4.9.0","clock":"c:1:2","is_fresh_instance":true,` +
				`"files":["a.py",{"name":"b.py","exists":true,"size":42}]}`,
		),
	}
	runTest(t, conversation, func(t *testing.T, conn *watchman.Connection) {
		res, err := conn.Query(
			"/tmp/project",
			expression.Suffix("py"),
			watchman.FieldName|watchman.FieldExists,
		)
		require.NoError(t, err)
		assert.Equal(t, "c:1:2", res.Clock)
		assert.True(t, res.IsFreshInstance)
		require.Len(t, res.Files, 2)
		assert.Equal(t, protocol.Stat{Name: "a.py"}, res.Files[0])
		assert.True(t, res.Files[1].Exists)
		assert.Equal(t, int64(42), res.Files[1].Size)
	})
}

func TestQuerySchemaError(t *testing.T) {
	conversation := []watchmanmock.ConversationEntry{
		watchmanmock.EntryInput(
			`["query","/tmp/project",{"expression":["true"],"fields":["name"]}]`,
		),
		// Response is missing the mandatory clock key
		watchmanmock.EntryOutput(
			`{"version":"4.9.0","is_fresh_instance":false,"files":[]}`,
		),
	}
	runTest(t, conversation, func(t *testing.T, conn *watchman.Connection) {
		res, err := conn.Query(
			"/tmp/project",
			expression.True(),
			watchman.FieldName,
		)
		var schemaErr *protocol.SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Nil(t, res)
	})
}

func TestQueryNilExpression(t *testing.T) {
	runTest(
		t,
		[]watchmanmock.ConversationEntry{},
		func(t *testing.T, conn *watchman.Connection) {
			_, err := conn.Query("/tmp/project", nil, watchman.FieldName)
			assert.Error(t, err)
		},
	)
}

func TestProtocolErrorMissingNewline(t *testing.T) {
	conversation := []watchmanmock.ConversationEntry{
		watchmanmock.EntryInput(`["watch","/tmp/project"]`),
		watchmanmock.EntryRawOutput([]byte(`{"version":"4.9.0"}`)),
		watchmanmock.EntryClose(),
	}
	runTest(t, conversation, func(t *testing.T, conn *watchman.Connection) {
		err := conn.Watch("/tmp/project")
		var protoErr *protocol.ProtocolError
		require.ErrorAs(t, err, &protoErr)
		assert.Equal(t, "no newline at end of reply", protoErr.Reason)
	})
}

func TestReadTimeout(t *testing.T) {
	// The scripted daemon never responds to the command
	conversation := []watchmanmock.ConversationEntry{
		watchmanmock.EntryInput(`["watch","/tmp/project"]`),
	}
	defer goleak.VerifyNone(t)
	mockConn := watchmanmock.NewConnection(conversation)
	conn, err := watchman.NewConnection(
		watchman.WithConnection(mockConn),
		watchman.WithReadTimeout(10*time.Millisecond),
	)
	require.NoError(t, err)
	err = conn.Watch("/tmp/project")
	var connErr *protocol.ConnectionError
	require.ErrorAs(t, err, &connErr)
	require.NoError(t, conn.Close())
}

func TestCommandAfterClose(t *testing.T) {
	runTest(
		t,
		[]watchmanmock.ConversationEntry{},
		func(t *testing.T, conn *watchman.Connection) {
			require.NoError(t, conn.Close())
			err := conn.Watch("/tmp/project")
			assert.ErrorIs(t, err, protocol.ErrConnectionClosed)
		},
	)
}

func TestCommandWithoutConnection(t *testing.T) {
	conn, err := watchman.NewConnection()
	require.NoError(t, err)
	err = conn.Watch("/tmp/project")
	var connErr *protocol.ConnectionError
	assert.ErrorAs(t, err, &connErr)
}

// Ensure that we don't panic when closing the Connection after a failed
// Dial() call
func TestDialFailClose(t *testing.T) {
	conn, err := watchman.NewConnection()
	if err != nil {
		t.Fatalf("unexpected error when creating Connection object: %s", err)
	}
	err = conn.Dial("unix", "/path/does/not/exist")
	if err == nil {
		t.Fatalf("did not get expected failure on Dial()")
	}
	// Close connection
	conn.Close()
}

func TestDoubleClose(t *testing.T) {
	mockConn := watchmanmock.NewConnection(nil)
	conn, err := watchman.NewConnection(
		watchman.WithConnection(mockConn),
	)
	if err != nil {
		t.Fatalf("unexpected error when creating Connection object: %s", err)
	}
	// Close connection
	if err := conn.Close(); err != nil {
		t.Fatalf("unexpected error when closing Connection object: %s", err)
	}
	// Close connection again
	if err := conn.Close(); err != nil {
		t.Fatalf(
			"unexpected error when closing Connection object again: %s",
			err,
		)
	}
}

// Multiple sequential exchanges on one connection must not corrupt framing.
func TestSequentialCommands(t *testing.T) {
	conversation := []watchmanmock.ConversationEntry{
		watchmanmock.EntryInput(`["watch","/tmp/project"]`),
		watchmanmock.EntryOutput(`{"version":"4.9.0","watch":"/tmp/project"}`),
		watchmanmock.EntryInput(`["watch-list"]`),
		watchmanmock.EntryOutput(`{"version":"4.9.0","roots":["/tmp/project"]}`),
		watchmanmock.EntryInput(`["watch-del","/tmp/project"]`),
		watchmanmock.EntryOutput(`{"version":"4.9.0","watch-del":true}`),
	}
	runTest(t, conversation, func(t *testing.T, conn *watchman.Connection) {
		require.NoError(t, conn.Watch("/tmp/project"))
		list, err := conn.WatchList()
		require.NoError(t, err)
		assert.Equal(t, []string{"/tmp/project"}, list.Roots)
		require.NoError(t, conn.WatchDel("/tmp/project"))
	})
}
