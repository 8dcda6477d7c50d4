// Package harness runs reconstruction scenarios as executable contract
// tests.
//
// A scenario replays step histories through the interaction stream
// builder, reconstructs readout events with the sequence search engine and
// then checks assertions against the emitted records and the persisted
// run.
//
// # Scenario Format
//
//	name: compton_photo
//	description: "What this scenario validates"
//	run_id: cs137-run
//	config:
//	  decay: { mode: normal }
//	levels:
//	  - { z: 27, a: 60, energy: 0, lifetime: 2.4e8 }
//	reconstruct: true
//	history:
//	  - id: cs137-line
//	    initial_particles: [gamma]
//	    steps: [...]
//	history_file: histories.yaml
//	events:
//	  - id: three-site
//	    sites: [...]
//	readout_file: readout.yaml
//	assertions:
//	  - type: record_count
//	    category: COMP
//	    count: 1
//	  - type: final_state
//	    table: orderings
//	    where: { event_id: cs137-line }
//	    expect: { status: good }
//
// # Assertion Types
//
//   - record_count: number of records of a category
//   - record_order: categories appear in this relative order
//   - record: fields of the n-th record of a category
//   - kill: a track was terminated, optionally for a given reason
//   - reconstruction: status, event type, order or reason of a search
//   - session: stored counts of the run, such as isotopes or orderings
//   - final_state: one row of a store table has the expected values
//
// # Determinism
//
// Every scenario runs against a fresh in-memory store with a fixed run id
// and a sequence counter for trace entries, so traces are byte-identical
// across runs and can be compared with golden files.
package harness
