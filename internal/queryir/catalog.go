package queryir

import "sort"

// Table describes one store table.
type Table struct {
	Name    string
	Columns []string
	// OrderBy makes row order deterministic. Text keys compare with
	// COLLATE BINARY.
	OrderBy []string
}

// HasColumn reports whether the table has the named column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Tables is the store schema as seen by queries. It mirrors schema.sql.
var Tables = map[string]Table{
	"runs": {
		Name:    "runs",
		Columns: []string{"seq", "id", "kind", "decay_mode", "source", "tool_version", "record_version"},
		OrderBy: []string{"seq"},
	},
	"interactions": {
		Name:    "interactions",
		Columns: []string{"hash", "run_id", "event_id", "record_id", "category", "record"},
		OrderBy: []string{"record_id", "hash"},
	},
	"future_events": {
		Name:    "future_events",
		Columns: []string{"run_id", "seq", "global_time", "species", "volume", "event"},
		OrderBy: []string{"run_id", "seq"},
	},
	"isotopes": {
		Name:    "isotopes",
		Columns: []string{"run_id", "volume", "nucleus", "excitation", "float_level", "lifetime", "count"},
		OrderBy: []string{"run_id", "volume", "nucleus", "excitation", "float_level"},
	},
	"skipped_volumes": {
		Name:    "skipped_volumes",
		Columns: []string{"run_id", "species", "volume", "count"},
		OrderBy: []string{"run_id", "species", "volume"},
	},
	"orderings": {
		Name:    "orderings",
		Columns: []string{"seq", "hash", "run_id", "event_id", "status", "event_type", "reason", "sequence", "quality", "second_quality", "n_candidates", "near_ties"},
		OrderBy: []string{"seq"},
	},
}

// TableNames returns the catalog's table names in lexical order.
func TableNames() []string {
	names := make([]string, 0, len(Tables))
	for n := range Tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
