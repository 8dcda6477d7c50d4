// Package testutil holds deterministic helpers shared by the tests and the
// conformance harness: trace numbering, fixed run ids and readout site
// builders.
package testutil
