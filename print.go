package mglevel

import (
	"fmt"
	"io"
	"reflect"
	"text/tabwriter"
)

// EntryInfo describes one stored key for diagnostics.
type EntryInfo struct {
	Name      string
	Factory   string
	Requests  int
	Kept      bool
	Available bool
	Type      reflect.Type // nil when not available
	UserData  bool
}

// Entries returns a snapshot of every tracked key, sorted by name.
func (l *Level) Entries() []EntryInfo {
	snap := l.store.Entries()
	out := make([]EntryInfo, 0, len(snap))
	for _, e := range snap {
		out = append(out, EntryInfo{
			Name:      e.Name,
			Factory:   FactoryName(e.Producer),
			Requests:  e.Requests,
			Kept:      e.Kept,
			Available: e.Available,
			Type:      e.Type,
			UserData:  e.Producer == userData,
		})
	}
	return out
}

// Print writes a table of the level's entries to w.
func (l *Level) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "LevelID = %d\n", l.id)
	fmt.Fprintln(tw, "name\tfactory\trequests\tkept\tavailable\ttype")
	for _, e := range l.Entries() {
		typ := "-"
		if e.Type != nil {
			typ = e.Type.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%t\t%s\n",
			e.Name, e.Factory, e.Requests, e.Kept, e.Available, typ)
	}
	return tw.Flush()
}
