package queryir

import "sort"

// Query is a read over one store table.
//
// This is a sealed interface; only Select implements it.
type Query interface {
	queryNode()
}

// Predicate is a row filter.
//
// This is a sealed interface; Equals and And implement it.
type Predicate interface {
	predicateNode()
}

// Select reads rows of a table.
//
// Semantics:
//
//	SELECT <columns> FROM <from> WHERE <filter> ORDER BY <table order key>
//
// Example:
//
//	Select{
//	  From:    "orderings",
//	  Filter:  And{Predicates: []Predicate{
//	    Equals{Field: "run_id", Value: "run-1"},
//	    Equals{Field: "status", Value: "good"},
//	  }},
//	  Columns: []string{"event_id", "quality"},
//	}
//
// An empty Columns list selects every catalog column of the table, in
// catalog order.
type Select struct {
	From    string    // store table name
	Filter  Predicate // nil = every row
	Columns []string  // result columns
}

func (Select) queryNode() {}

// Equals compares a column with a literal.
//
// Value must be a string, an integer, a float64 or a bool. NULL is not
// expressible.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// And is true when every predicate is. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Where builds an equality filter from a field map, such as the where block
// of a scenario assertion. Fields are sorted so the filter is
// deterministic. It returns nil for an empty map.
func Where(fields map[string]any) Predicate {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	preds := make([]Predicate, 0, len(keys))
	for _, k := range keys {
		preds = append(preds, Equals{Field: k, Value: fields[k]})
	}
	if len(preds) == 1 {
		return preds[0]
	}
	return And{Predicates: preds}
}

// Conjoin joins predicates with And, dropping nils.
func Conjoin(preds ...Predicate) Predicate {
	var out []Predicate
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return And{Predicates: out}
}
