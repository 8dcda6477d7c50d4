package harness

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/comptonseq/internal/ir"
	"github.com/roach88/comptonseq/internal/queryir"
	"github.com/roach88/comptonseq/internal/querysql"
	"github.com/roach88/comptonseq/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s\n", i+1, event.EventID, event.Type, describe(event))
		}
	}

	return buf.String()
}

func describe(event TraceEvent) string {
	switch event.Type {
	case TraceRecord:
		return fmt.Sprintf("%v id=%v origin=%v", event.Data["category"], event.Data["id"], event.Data["origin_id"])
	case TraceKill:
		return fmt.Sprintf("track=%v reason=%v", event.Data["track"], event.Data["reason"])
	case TraceOrdering:
		return fmt.Sprintf("status=%v order=%v", event.Data["status"], event.Data["order"])
	}
	return ""
}

// sameCategory compares by record code, so that "DECA" matches both decay
// categories.
func sameCategory(c ir.Category, want string) bool {
	w, ok := parseCategory(want)
	return ok && c.Code() == w.Code()
}

// assertRecordCount checks that the category occurs exactly Count times.
func assertRecordCount(result *Result, assertion Assertion) error {
	count := 0
	for _, r := range result.Records(assertion.Event) {
		if sameCategory(r.Category, assertion.Category) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertRecordCount,
			Expected: fmt.Sprintf("%d %s records%s", assertion.Count, assertion.Category, inEvent(assertion.Event)),
			Actual:   fmt.Sprintf("%d records", count),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertRecordOrder checks that records of the categories appear in the
// given relative order. Other records may come in between.
func assertRecordOrder(result *Result, assertion Assertion) error {
	records := result.Records(assertion.Event)
	next := 0
	for _, r := range records {
		if next < len(assertion.Categories) && sameCategory(r.Category, assertion.Categories[next]) {
			next++
		}
	}

	if next < len(assertion.Categories) {
		codes := make([]string, len(records))
		for i, r := range records {
			codes[i] = r.Category.Code()
		}
		return &AssertionError{
			Type:     AssertRecordOrder,
			Expected: fmt.Sprintf("records in order %v%s", assertion.Categories, inEvent(assertion.Event)),
			Actual:   fmt.Sprintf("%v (missing %s)", codes, assertion.Categories[next]),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertRecord checks fields of the Index-th record, counting only records
// of Category when it is set. Fields use the canonical record names plus
// detector, in_particle and out_particle.
func assertRecord(result *Result, assertion Assertion) error {
	var matched []ir.InteractionRecord
	for _, r := range result.Records(assertion.Event) {
		if assertion.Category == "" || sameCategory(r.Category, assertion.Category) {
			matched = append(matched, r)
		}
	}
	if assertion.Index >= len(matched) {
		return &AssertionError{
			Type:     AssertRecord,
			Expected: fmt.Sprintf("record %d %s%s", assertion.Index, assertion.Category, inEvent(assertion.Event)),
			Actual:   fmt.Sprintf("only %d records", len(matched)),
			Trace:    result.Trace,
		}
	}

	fields := recordFields(matched[assertion.Index])
	for _, key := range sortedKeys(assertion.Expect) {
		actual, ok := fields[key]
		if !ok {
			return fmt.Errorf("record assertion: unknown field %q", key)
		}
		if !valuesEqual(actual, assertion.Expect[key]) {
			return &AssertionError{
				Type:     AssertRecord,
				Expected: fmt.Sprintf("field %q = %v", key, assertion.Expect[key]),
				Actual:   fmt.Sprintf("field %q = %v", key, actual),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

func recordFields(r ir.InteractionRecord) map[string]any {
	fields := ir.CanonicalRecord(r)
	fields["detector"] = r.DetectorType.String()
	fields["in_particle"] = r.InType.String()
	fields["out_particle"] = r.OutType.String()
	return fields
}

// assertKill checks that the track was terminated, for Reason if set.
func assertKill(result *Result, assertion Assertion) error {
	var reasons []string
	for _, ev := range result.Events {
		if assertion.Event != "" && ev.ID != assertion.Event {
			continue
		}
		for _, k := range ev.Kills {
			if k.Track != assertion.Track {
				continue
			}
			if assertion.Reason == "" || k.Reason.String() == assertion.Reason {
				return nil
			}
			reasons = append(reasons, k.Reason.String())
		}
	}

	actual := "track not killed"
	if len(reasons) > 0 {
		actual = fmt.Sprintf("killed with %s", strings.Join(reasons, ", "))
	}
	return &AssertionError{
		Type:     AssertKill,
		Expected: fmt.Sprintf("track %d killed%s%s", assertion.Track, withReason(assertion.Reason), inEvent(assertion.Event)),
		Actual:   actual,
		Trace:    result.Trace,
	}
}

// assertReconstruction checks the search result of one event.
func assertReconstruction(result *Result, assertion Assertion) error {
	ev, ok := result.Event(assertion.Event)
	if !ok || ev.Reconstruction == nil {
		return &AssertionError{
			Type:     AssertReconstruction,
			Expected: fmt.Sprintf("event %s reconstructed", assertion.Event),
			Actual:   "no search result",
			Trace:    result.Trace,
		}
	}
	res := ev.Reconstruction

	mismatch := func(field string, want, got any) error {
		return &AssertionError{
			Type:     AssertReconstruction,
			Expected: fmt.Sprintf("event %s %s = %v", assertion.Event, field, want),
			Actual:   fmt.Sprintf("%s = %v", field, got),
			Trace:    result.Trace,
		}
	}
	if assertion.Status != "" && string(res.Status) != assertion.Status {
		return mismatch("status", assertion.Status, res.Status)
	}
	if assertion.EventType != "" && string(res.Type) != assertion.EventType {
		return mismatch("event_type", assertion.EventType, res.Type)
	}
	if assertion.Reason != "" && string(res.Reason) != assertion.Reason {
		return mismatch("reason", assertion.Reason, res.Reason)
	}
	if assertion.Order != nil && !reflect.DeepEqual(assertion.Order, res.Order) {
		return mismatch("order", assertion.Order, res.Order)
	}
	return nil
}

// assertSession checks the stored counts of the run.
func assertSession(result *Result, assertion Assertion) error {
	counts := countFields(result.Counts)
	for _, key := range sortedKeys(assertion.Expect) {
		actual, ok := counts[key]
		if !ok {
			return fmt.Errorf("session assertion: unknown count %q", key)
		}
		if !valuesEqual(actual, assertion.Expect[key]) {
			return &AssertionError{
				Type:     AssertSession,
				Expected: fmt.Sprintf("%s = %v", key, assertion.Expect[key]),
				Actual:   fmt.Sprintf("%s = %d", key, actual),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

func countFields(c store.RunCounts) map[string]any {
	return map[string]any{
		"records":       c.Records,
		"future_events": c.FutureEvents,
		"isotopes":      c.Isotopes,
		"skips":         c.Skips,
		"orderings":     c.Orderings,
		"good":          c.Good,
	}
}

func inEvent(id string) string {
	if id == "" {
		return ""
	}
	return " in event " + id
}

func withReason(reason string) string {
	if reason == "" {
		return ""
	}
	return " by " + reason
}

// assertFinalState checks that exactly one row of a store table matches
// Where and carries the Expect values.
//
// Table and column names are checked against the store catalog before any
// SQL is built; values are always parameters.
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	if assertion.Table == "" {
		return fmt.Errorf("final_state assertion requires table name")
	}

	query, args, err := querysql.Compile(queryir.Select{
		From:   assertion.Table,
		Filter: queryir.Where(assertion.Where),
	})
	if err != nil {
		return err
	}

	rows, err := st.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	if !rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "row not found",
		}
	}

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}

	// Several matching rows make the assertion ambiguous.
	if rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := make(map[string]any, len(columns))
	for i, col := range columns {
		actualRow[col] = values[i]
	}

	for _, key := range sortedKeys(assertion.Expect) {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in result columns: %v", key, columns),
			}
		}

		if !valuesEqual(actualValue, expectedValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}

	return nil
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	keys := sortedKeys(where)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// valuesEqual compares an actual value with one decoded from YAML.
// Numbers compare by value whatever their Go type, SQLite integers stand
// in for booleans and vectors compare with three-element lists.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}

	if a, ok := toFloat(actual); ok {
		if e, ok := toFloat(expected); ok {
			return a == e
		}
		if e, ok := expected.(bool); ok {
			return e == (a != 0)
		}
		return false
	}

	switch a := actual.(type) {
	case []byte:
		return valuesEqual(string(a), expected)
	case r3.Vec:
		list, ok := expected.([]any)
		if !ok || len(list) != 3 {
			return false
		}
		return valuesEqual(a.X, list[0]) && valuesEqual(a.Y, list[1]) && valuesEqual(a.Z, list[2])
	}

	return reflect.DeepEqual(actual, expected)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for final_state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertRecordCount:
			err = assertRecordCount(result, assertion)
		case AssertRecordOrder:
			err = assertRecordOrder(result, assertion)
		case AssertRecord:
			err = assertRecord(result, assertion)
		case AssertKill:
			err = assertKill(result, assertion)
		case AssertReconstruction:
			err = assertReconstruction(result, assertion)
		case AssertSession:
			err = assertSession(result, assertion)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires database context", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
