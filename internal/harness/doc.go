// Package harness runs planning scenarios as executable contract tests.
//
// A scenario seeds a fresh in-memory registry, plans one subject against
// inline availability and checks the outcome with assertions.
//
// # Scenario Format
//
//	name: channel_migration
//	description: "Unpartitioned history, then a channel split"
//	policy: |
//	  dimensions: channel: values: ["web", "app"]
//	registry:
//	  - owner_id: o1
//	    content_address: h1
//	    canonical_signature: "sig-1"
//	links:
//	  - owner_id: o1
//	    a: h1
//	    b: h2
//	plan:
//	  owner_id: o1
//	  content_address: h1
//	  days: {start: "2025-01-01", end: "2025-01-03"}
//	  in_scope: [channel]
//	  availability:
//	    "2025-01-01":
//	      - observed_at: 2025-01-02T06:00:00Z
//	        rows: [{partition_key: "", row_count: 10}]
//	assertions:
//	  - type: epochs
//	    epochs:
//	      - {days: "2025-01-01..2025-01-01", dimensions: []}
//	  - type: gap_days
//	    count: 2
//
// # Assertion Types
//
//   - epochs: the plan's epochs, in order, match exactly
//   - gap_days: the plan has exactly Count gap days
//   - decision: one day's gap reason and dimensions
//   - resolve: an address's equivalence closure
//   - families: an owner has Count families
//   - plan_error: planning fails with the given error code
//
// The planner's output is deterministic, so RunWithGolden snapshots the
// rendered plan under testdata/golden.
package harness
