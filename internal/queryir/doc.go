// Package queryir is a small query representation over the store's tables.
//
// Harness final_state assertions and record filters describe what they want
// as a Select with a predicate tree. The querysql package turns it into
// parameterized SQLite; nothing above the store writes SQL text itself.
//
// FRAGMENT:
//
// The representation covers what read paths need and nothing more:
//   - Select(from, filter, columns) over one store table
//   - Predicates: Equals, And
//   - Scalar literal values: string, integer, float, bool
//
// It excludes NULL comparisons, joins, aggregation and OR. Counting and
// joining stay hand-written inside the store.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed with marker methods so that compilers can
// switch over them exhaustively:
//
//	switch p := pred.(type) {
//	case Equals:
//	    // field = ?
//	case And:
//	    // conjunction
//	}
//
// CATALOG:
//
// Tables lists every store table with its columns and the key that orders
// its rows deterministically. Validate rejects unknown tables and columns,
// so identifiers reaching SQL always come from the catalog and never from
// user input.
package queryir
