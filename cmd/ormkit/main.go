/*
Command ormkit is the thin CLI front end over the migration engine
(spec.md §1: "out of scope... the command-line front end (argument
parsing, pretty-printing tables)"; SPEC_FULL.md §1 clarifies this
module still ships a minimal cmd/ormkit for usability, with no core
logic living here — every subcommand is a direct passthrough into
pkg/ormkit/migrate).

Grounded on the teacher's cmd/api/main.go run()-error wiring pattern
and xataio/pgroll's cmd/ cobra command-tree shape (one file per
subcommand, a shared root.go).
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ormkit:", err)
		os.Exit(exitCodeFor(err))
	}
}
