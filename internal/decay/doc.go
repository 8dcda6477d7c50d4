// Package decay decides the disposition of radioactive decays.
//
// A Scheduler is built once per run from the configured mode and detector
// time constant. For every radioactive-decay step it returns four
// independent flags: Keep, Store, FutureEvent and DoNotStart. The flags are
// not a single enum; Store together with Keep=false is a legitimate
// store-and-discard outcome.
//
// Canonicalize turns a decaying nucleus into the activation-inventory key by
// snapping its excitation onto a tabulated nuclear level.
package decay
