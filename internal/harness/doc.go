// Package harness runs replant scenarios against the real dispatcher.
//
// A scenario sets up an in-memory world (blocks, loot tables, tags), loads a
// catalog, performs a list of interactions and checks both per-step
// expectations and end-of-run assertions. Every scenario gets a fresh
// in-memory harness log, a deterministic clock and sequential interaction
// ids, so traces are byte-identical across runs and can be compared with
// golden files.
//
// # Scenario Format
//
//	name: replant_wheat
//	description: "Ripe wheat with a seed in its drops is replanted"
//	config: ../configs/vanilla.json   # or an inline catalog:, or neither for defaults
//	catalog:
//	  crops:
//	    - block: minecraft:wheat
//	      stage: 7
//	tags:                             # optional; vanilla tags when omitted
//	  crops: [minecraft:wheat]
//	  seeds: [minecraft:wheat_seeds]
//	blocks:
//	  - pos: [0, 64, 0]
//	    state: "minecraft:wheat[age=7]"
//	loot:
//	  - block: "minecraft:wheat[age=7]"
//	    drops:
//	      - {item: minecraft:wheat_seeds, count: 1}
//	      - {item: minecraft:wheat, count: 3}
//	interactions:
//	  - pos: [0, 64, 0]
//	    expect:
//	      result: success
//	      outcome: replanted
//	      block: "minecraft:wheat[age=0]"
//	assertions:
//	  - type: spawned
//	    item: minecraft:wheat
//	    count: 3
//
// # Assertion Types
//
//   - outcome_count: number of logged interactions with an outcome
//   - replants: number of successful replants logged for a rule label
//   - final_block: block state at a position after the run
//   - spawned: total count of an item scattered into the world
//   - exhaustion: total exhaustion charged to the actor
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/replant_wheat.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
package harness
