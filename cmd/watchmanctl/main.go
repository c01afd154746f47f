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

package main

import (
	"fmt"
	"os"
	"time"

	watchman "github.com/LaudateCorpus1/libwatchman"
	"github.com/LaudateCorpus1/libwatchman/expression"
	"github.com/docopt/docopt-go"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const WatchmanCtlVersion = "0.1.0"

const usage = `Watchman control.

Talks to a running watchman daemon. The daemon's unix socket is located with
"watchman get-sockname" unless --sockname is given.

Usage:
    watchmanctl [options] watch <path>
    watchmanctl [options] watch-del <path>
    watchmanctl [options] watch-list
    watchmanctl [options] query <root> [--suffix=<suffix>] [--since=<clock>] [--name=<name>...]
    watchmanctl -h | --help
    watchmanctl --version

Options:
    -s --sockname=<path>  Unix socket path of the watchman daemon.
    -t --timeout=<secs>   Per-response read timeout in seconds [default: 0].
    --suffix=<suffix>     Only match files with the given suffix.
    --since=<clock>       Only match files changed since the given clock cursor.
    --name=<name>         Only match files with the given name (repeatable).
    -v --verbose          Enable debug logging.
    -h --help             Show this screen.
    --version             Show version.
`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], WatchmanCtlVersion)
	if err != nil {
		fmt.Printf("failed to parse command args: %s\n", err)
		os.Exit(1)
	}

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	if verbose, _ := opts.Bool("--verbose"); verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	connOpts := []watchman.ConnectionOptionFunc{
		watchman.WithLogger(logger),
	}
	if sockname, _ := opts.String("--sockname"); sockname != "" {
		connOpts = append(connOpts, watchman.WithSocketPath(sockname))
	}
	if timeout, _ := opts.Int("--timeout"); timeout > 0 {
		connOpts = append(
			connOpts,
			watchman.WithReadTimeout(time.Duration(timeout)*time.Second),
		)
	}

	conn, err := watchman.Connect(connOpts...)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	switch {
	case boolOpt(opts, "watch"):
		path, _ := opts.String("<path>")
		if err := conn.Watch(path); err != nil {
			fmt.Printf("ERROR: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("now watching %s\n", path)
	case boolOpt(opts, "watch-del"):
		path, _ := opts.String("<path>")
		if err := conn.WatchDel(path); err != nil {
			fmt.Printf("ERROR: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("no longer watching %s\n", path)
	case boolOpt(opts, "watch-list"):
		list, err := conn.WatchList()
		if err != nil {
			fmt.Printf("ERROR: %s\n", err)
			os.Exit(1)
		}
		for _, root := range list.Roots {
			fmt.Println(root)
		}
	case boolOpt(opts, "query"):
		runQuery(conn, opts)
	}
}

func runQuery(conn *watchman.Connection, opts docopt.Opts) {
	root, _ := opts.String("<root>")
	expr, err := buildExpression(opts)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	fields := watchman.FieldName |
		watchman.FieldExists |
		watchman.FieldSize |
		watchman.FieldMTime |
		watchman.FieldNewer
	res, err := conn.Query(root, expr, fields)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("clock: %s\n", res.Clock)
	if res.IsFreshInstance {
		fmt.Print("fresh instance: full rescan, not an incremental delta\n")
	}
	for _, stat := range res.Files {
		marker := " "
		if stat.Newer {
			marker = "*"
		}
		if !stat.Exists {
			marker = "-"
		}
		fmt.Printf("%s %10d  %s\n", marker, stat.Size, stat.Name)
	}
}

// buildExpression combines the query flags into a single predicate. With no
// flags the query matches every file.
func buildExpression(opts docopt.Opts) (expression.Expression, error) {
	var terms []expression.Expression
	if suffix, _ := opts.String("--suffix"); suffix != "" {
		terms = append(terms, expression.Suffix(suffix))
	}
	if since, _ := opts.String("--since"); since != "" {
		terms = append(
			terms,
			expression.SinceClock(since, expression.ClockSpecDefault),
		)
	}
	if names := stringListOpt(opts, "--name"); len(names) > 0 {
		nameExpr, err := expression.Name(names, expression.ScopeDefault)
		if err != nil {
			return nil, err
		}
		terms = append(terms, nameExpr)
	}
	switch len(terms) {
	case 0:
		return expression.True(), nil
	case 1:
		return terms[0], nil
	default:
		return expression.AllOf(terms...)
	}
}

func boolOpt(opts docopt.Opts, key string) bool {
	val, _ := opts.Bool(key)
	return val
}

func stringListOpt(opts docopt.Opts, key string) []string {
	raw, ok := opts[key]
	if !ok || raw == nil {
		return nil
	}
	vals, ok := raw.([]string)
	if !ok {
		return nil
	}
	return vals
}
