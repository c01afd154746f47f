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

// Fields is a bitmask selecting which per-file attributes a query result
// carries. Field names are always emitted in declaration order, regardless of
// the order the bits were set.
type Fields uint32

const (
	FieldName Fields = 1 << iota
	FieldExists
	FieldCClock
	FieldOClock
	FieldCTime
	FieldCTimeMs
	FieldCTimeUs
	FieldCTimeNs
	FieldCTimeF
	FieldMTime
	FieldMTimeMs
	FieldMTimeUs
	FieldMTimeNs
	FieldMTimeF
	FieldSize
	FieldUID
	FieldGID
	FieldIno
	FieldDev
	FieldNlink
	FieldNewer
)

// fieldNames is indexed by bit position and fixes the canonical emission
// order.
var fieldNames = [...]string{
	"name",
	"exists",
	"cclock",
	"oclock",
	"ctime",
	"ctime_ms",
	"ctime_us",
	"ctime_ns",
	"ctime_f",
	"mtime",
	"mtime_ms",
	"mtime_us",
	"mtime_ns",
	"mtime_f",
	"size",
	"uid",
	"gid",
	"ino",
	"dev",
	"nlink",
	"new",
}

// Names returns the names of the set fields in canonical declaration order.
func (f Fields) Names() []string {
	names := make([]string, 0, len(fieldNames))
	for i, name := range fieldNames {
		if f&(1<<uint(i)) != 0 {
			names = append(names, name)
		}
	}
	return names
}
