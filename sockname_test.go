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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSockName(t *testing.T) {
	sockname, err := parseSockName(
		[]byte(`{"version":"4.9.0","sockname":"/tmp/watchman.sock"}`),
	)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/watchman.sock", sockname)
}

func TestParseSockNameBadJSON(t *testing.T) {
	_, err := parseSockName([]byte(`{"sockname":`))
	assert.ErrorContains(t, err, "bad JSON from watchman get-sockname")
}

func TestParseSockNameNotObject(t *testing.T) {
	_, err := parseSockName([]byte(`["sockname"]`))
	assert.ErrorContains(t, err, "object expected")
}

func TestParseSockNameMissingKey(t *testing.T) {
	_, err := parseSockName([]byte(`{"version":"4.9.0"}`))
	assert.ErrorContains(t, err, "sockname expected")
}

func TestParseSockNameNotString(t *testing.T) {
	_, err := parseSockName([]byte(`{"sockname":42}`))
	assert.ErrorContains(t, err, "sockname is not a string")
}
