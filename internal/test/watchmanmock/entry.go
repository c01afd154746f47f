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

// MockVersion is the daemon version reported in canned responses
const MockVersion = "4.9.0"

// EntryInput returns a conversation entry asserting the exact command line
// sent by the client, without its trailing newline
func EntryInput(command string) ConversationEntry {
	return ConversationEntry{
		Type:         EntryTypeInput,
		InputCommand: command,
	}
}

// EntryOutput returns a conversation entry that sends one JSON response
// followed by the protocol's trailing newline
func EntryOutput(response string) ConversationEntry {
	return ConversationEntry{
		Type:   EntryTypeOutput,
		Output: response,
	}
}

// EntryRawOutput returns a conversation entry that sends raw bytes verbatim,
// for exercising malformed framing
func EntryRawOutput(data []byte) ConversationEntry {
	return ConversationEntry{
		Type:      EntryTypeOutput,
		RawOutput: data,
	}
}

// EntryClose returns a conversation entry that closes the connection
func EntryClose() ConversationEntry {
	return ConversationEntry{
		Type: EntryTypeClose,
	}
}
