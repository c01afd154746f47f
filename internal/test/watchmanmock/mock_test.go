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

package watchmanmock

import (
	"bufio"
	"testing"

	"go.uber.org/goleak"
)

func TestScriptedConversation(t *testing.T) {
	defer goleak.VerifyNone(t)
	conn := NewConnection(
		[]ConversationEntry{
			EntryInput(`["watch-list"]`),
			EntryOutput(`{"version":"` + MockVersion + `","roots":[]}`),
		},
	)
	if _, err := conn.Write([]byte("[\"watch-list\"]\n")); err != nil {
		t.Fatalf("unexpected write error: %s", err)
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("unexpected read error: %s", err)
	}
	expected := `{"version":"4.9.0","roots":[]}` + "\n"
	if line != expected {
		t.Fatalf("did not get expected response: got %q, wanted %q", line, expected)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("unexpected close error: %s", err)
	}
}
