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
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/valyala/fastjson"
)

// GetSockName locates the daemon's unix socket by invoking
// "watchman get-sockname" and parsing its standard output, which is expected
// to be a JSON object of the shape {"sockname": "<path>"}.
func GetSockName(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "watchman", "get-sockname").Output()
	if err != nil {
		return "", fmt.Errorf("could not run watchman get-sockname: %w", err)
	}
	return parseSockName(out)
}

func parseSockName(data []byte) (string, error) {
	var parser fastjson.Parser
	v, err := parser.ParseBytes(data)
	if err != nil {
		return "", fmt.Errorf(
			"got bad JSON from watchman get-sockname: %w", err,
		)
	}
	if v.Type() != fastjson.TypeObject {
		return "", errors.New(
			"got bad JSON from watchman get-sockname: object expected",
		)
	}
	sockVal := v.Get("sockname")
	if sockVal == nil {
		return "", errors.New(
			"got bad JSON from watchman get-sockname: sockname expected",
		)
	}
	sockname, err := sockVal.StringBytes()
	if err != nil {
		return "", errors.New(
			"got bad JSON from watchman get-sockname: sockname is not a string",
		)
	}
	return string(sockname), nil
}
