// Package input reads the YAML files the command line and the harness
// work on: step histories that drive the stream builder, and readout
// events that feed the sequence search.
//
// History files list events as flat step sequences in causal order:
//
//	events:
//	  - id: e1
//	    initial_particles: [gamma]
//	    steps:
//	      - track: 1
//	        particle: gamma
//	        process: compt
//	        pre:  {position: [0, 0, 10], energy: 662, volume: Tracker, detector: strip2d}
//	        post: {position: [0, 0, 0], time: 1.0e-9, volume: Tracker, detector: strip2d}
//	        secondaries:
//	          - {track: 2, particle: e-, position: [0, 0, 0], energy: 150}
//
// Readout files list the measured sites of each event:
//
//	events:
//	  - id: r1
//	    sites:
//	      - {position: [0, 0, 0], energy: 150, detector: strip2d}
//	      - {position: [0, 0, -5], energy: 512, detector: calorimeter}
//
// Unknown keys are rejected in both formats.
package input
