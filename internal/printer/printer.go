// Package printer renders the engine's runtime state - a snapshot of which
// keys are being watched on which objects, and a reaction fire trace - as
// aligned tables.
package printer

import (
	"io"
	"strconv"

	"github.com/aquasecurity/table"
)

// GraphRow is one line of the dependency/subscription graph rendered by the
// graph command: which object and key an Updatable depends on, and what
// kind of registration it is (direct read, whole-object watch, deep watch,
// or inherited via a prototype).
type GraphRow struct {
	Object string
	Key    string
	Kind   string
}

// PrintGraph renders rows as an aligned table to w, in the order given -
// callers are expected to have already sorted rows the way they want them
// displayed.
func PrintGraph(w io.Writer, rows []GraphRow) {
	t := table.New(w)
	t.SetHeaders("OBJECT", "KEY", "SUBSCRIPTION")
	for _, r := range rows {
		t.AddRow(r.Object, r.Key, r.Kind)
	}
	t.Render()
}

// TraceRow is one line of a reaction trace rendered by the watch command:
// which reaction fired, how many times it has fired so far, and the last
// value it computed.
type TraceRow struct {
	Reaction string
	Fires    int
	Last     string
}

// PrintTrace renders rows as an aligned table to w.
func PrintTrace(w io.Writer, rows []TraceRow) {
	t := table.New(w)
	t.SetHeaders("REACTION", "FIRES", "LAST VALUE")
	for _, r := range rows {
		t.AddRow(r.Reaction, strconv.Itoa(r.Fires), r.Last)
	}
	t.Render()
}
