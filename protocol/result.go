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
	"github.com/valyala/fastjson"
)

// Stat describes one file entry in a query result. Only the attributes
// requested through the query's field list are populated; everything else
// keeps its zero value.
type Stat struct {
	Name   string
	Exists bool
	Mode   int64
	Newer  bool
	Size   int64

	CTime   int64
	CTimeMs int64
	CTimeUs int64
	CTimeNs int64
	CTimeF  float64
	MTime   int64
	MTimeMs int64
	MTimeUs int64
	MTimeNs int64
	MTimeF  float64

	UID   int64
	GID   int64
	Ino   int64
	Dev   int64
	Nlink int64

	OClock string
	CClock string
}

// QueryResult is the decoded response to a query command.
type QueryResult struct {
	Version         string
	Clock           string
	IsFreshInstance bool
	Files           []Stat
}

// WatchList is the decoded response to a watch-list command.
type WatchList struct {
	Roots []string
}

// DecodeWatchList decodes a watch-list response. The response must be an
// object with a "roots" key holding an array of strings.
func DecodeWatchList(v *fastjson.Value) (*WatchList, error) {
	if err := CheckResponse(v); err != nil {
		return nil, err
	}
	rootsVal := v.Get("roots")
	if rootsVal == nil {
		return nil, newSchemaError("got bogus value from watch-list", v)
	}
	roots, err := rootsVal.Array()
	if err != nil {
		return nil, newSchemaError("got bogus value from watch-list", rootsVal)
	}
	list := &WatchList{
		Roots: make([]string, 0, len(roots)),
	}
	for _, rootVal := range roots {
		root, err := rootVal.StringBytes()
		if err != nil {
			return nil, newSchemaError(
				"got non-string root from watch-list",
				rootVal,
			)
		}
		list.Roots = append(list.Roots, string(root))
	}
	return list, nil
}

// DecodeQueryResult decodes a query response. The response must be an object
// with a "files" array and string "version", string "clock", and boolean
// "is_fresh_instance" keys. There is no partial result: any schema violation
// returns only the error.
func DecodeQueryResult(v *fastjson.Value) (*QueryResult, error) {
	if err := CheckResponse(v); err != nil {
		return nil, err
	}
	filesVal := v.Get("files")
	if filesVal == nil {
		return nil, newSchemaError("bad files", v)
	}
	files, err := filesVal.Array()
	if err != nil {
		return nil, newSchemaError("bad files", filesVal)
	}
	res := &QueryResult{
		Files: make([]Stat, 0, len(files)),
	}
	for _, fileVal := range files {
		stat, err := decodeStat(fileVal)
		if err != nil {
			return nil, err
		}
		res.Files = append(res.Files, stat)
	}
	version, err := stringKey(v, "version")
	if err != nil {
		return nil, newSchemaError("bad version", v.Get("version"))
	}
	res.Version = version
	clock, err := stringKey(v, "clock")
	if err != nil {
		return nil, newSchemaError("bad clock", v.Get("clock"))
	}
	res.Clock = clock
	freshVal := v.Get("is_fresh_instance")
	if freshVal == nil {
		return nil, newSchemaError("bad is_fresh_instance", nil)
	}
	fresh, err := freshVal.Bool()
	if err != nil {
		return nil, newSchemaError("bad is_fresh_instance", freshVal)
	}
	res.IsFreshInstance = fresh
	return res, nil
}

// decodeStat decodes one element of a "files" array. A bare string is
// shorthand for an entry carrying only a name. Object entries require a
// string "name"; all other attributes are optional and default to their zero
// values when absent.
func decodeStat(v *fastjson.Value) (Stat, error) {
	if v.Type() == fastjson.TypeString {
		name, err := v.StringBytes()
		if err != nil {
			return Stat{}, newSchemaError("name must be string", v)
		}
		return Stat{Name: string(name)}, nil
	}
	if v.Type() != fastjson.TypeObject {
		return Stat{}, newSchemaError("file entry must be object", v)
	}
	name, err := stringKey(v, "name")
	if err != nil {
		return Stat{}, newSchemaError("name must be string", v.Get("name"))
	}
	return Stat{
		Name:   name,
		Exists: v.GetBool("exists"),
		Mode:   v.GetInt64("mode"),
		Newer:  v.GetBool("new"),
		Size:   v.GetInt64("size"),

		CTime:   v.GetInt64("ctime"),
		CTimeMs: v.GetInt64("ctime_ms"),
		CTimeUs: v.GetInt64("ctime_us"),
		CTimeNs: v.GetInt64("ctime_ns"),
		CTimeF:  v.GetFloat64("ctime_f"),
		MTime:   v.GetInt64("mtime"),
		MTimeMs: v.GetInt64("mtime_ms"),
		MTimeUs: v.GetInt64("mtime_us"),
		MTimeNs: v.GetInt64("mtime_ns"),
		MTimeF:  v.GetFloat64("mtime_f"),

		UID:   v.GetInt64("uid"),
		GID:   v.GetInt64("gid"),
		Ino:   v.GetInt64("ino"),
		Dev:   v.GetInt64("dev"),
		Nlink: v.GetInt64("nlink"),

		OClock: string(v.GetStringBytes("oclock")),
		CClock: string(v.GetStringBytes("cclock")),
	}, nil
}

// stringKey fetches a required string key from an object.
func stringKey(v *fastjson.Value, key string) (string, error) {
	keyVal := v.Get(key)
	if keyVal == nil {
		return "", errMissingKey
	}
	s, err := keyVal.StringBytes()
	if err != nil {
		return "", err
	}
	return string(s), nil
}
