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

	watchman "github.com/LaudateCorpus1/libwatchman"
	"github.com/stretchr/testify/assert"
)

func TestFieldNamesDeclarationOrder(t *testing.T) {
	// Emission order follows the declaration table, not the order bits were
	// combined
	fields := watchman.FieldExists | watchman.FieldName
	assert.Equal(t, []string{"name", "exists"}, fields.Names())

	fields = watchman.FieldNewer | watchman.FieldSize | watchman.FieldMTime
	assert.Equal(t, []string{"mtime", "size", "new"}, fields.Names())
}

func TestFieldNamesEmpty(t *testing.T) {
	assert.Empty(t, watchman.Fields(0).Names())
}

func TestFieldNamesAll(t *testing.T) {
	all := watchman.FieldName |
		watchman.FieldExists |
		watchman.FieldCClock |
		watchman.FieldOClock |
		watchman.FieldCTime |
		watchman.FieldCTimeMs |
		watchman.FieldCTimeUs |
		watchman.FieldCTimeNs |
		watchman.FieldCTimeF |
		watchman.FieldMTime |
		watchman.FieldMTimeMs |
		watchman.FieldMTimeUs |
		watchman.FieldMTimeNs |
		watchman.FieldMTimeF |
		watchman.FieldSize |
		watchman.FieldUID |
		watchman.FieldGID |
		watchman.FieldIno |
		watchman.FieldDev |
		watchman.FieldNlink |
		watchman.FieldNewer
	assert.Equal(
		t,
		[]string{
			"name", "exists", "cclock", "oclock",
			"ctime", "ctime_ms", "ctime_us", "ctime_ns", "ctime_f",
			"mtime", "mtime_ms", "mtime_us", "mtime_ns", "mtime_f",
			"size", "uid", "gid", "ino", "dev", "nlink", "new",
		},
		all.Names(),
	)
}
