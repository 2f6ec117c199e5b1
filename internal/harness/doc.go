// Package harness runs model scenarios described in YAML and checks their
// outcomes.
//
// A scenario declares the models under test, setup records, a flow of
// model operations with expected outcomes, and assertions over the
// resulting trace, the data source call counts and the final state.
// The same scenario runs against any Backend: the in-memory data source
// or a freshly migrated SQLite database.
//
// # Scenario Format
//
//	name: filter_by_author
//	description: "Filters restrict retrieval to matching rows"
//	models: models.cue            # optional; defaults to the Books model
//	setup:
//	  - model: books_books
//	    record: '{"isbn":"1","title":"Animal Farm","authors":"Orwell"}'
//	flow:
//	  - op: get_with_filter
//	    model: books_books
//	    filter: { authors: Orwell }
//	    expect:
//	      outcome: ok
//	      count: 1
//	      records:
//	        - { title: Animal Farm }
//	assertions:
//	  - type: call_count
//	    model: books_books
//	    op: retrieve
//	    count: 1
//	  - type: final_state
//	    model: books_books
//	    where: { isbn: "1" }
//	    expect: { title: Animal Farm }
//
// # Operations
//
//   - get_all: retrieve every record of the model
//   - get_with_filter: retrieve with the step's filter
//   - create_new: create the step's record (JSON object text)
//
// # Outcomes
//
//   - ok: the operation succeeded
//   - invalid_field: the model rejected undeclared fields
//   - parse_error: the record text did not decode
//   - create_error: the data source rejected the record
//   - retrieval_error: the data source failed the query
//
// # Assertion Types
//
//   - call_count: the model's data source saw op exactly count times
//   - trace_order: the flow ops appear in this relative order
//   - final_state: one record matches where and has the expect values
//
// # Golden Files
//
// RunWithGolden renders the trace as text and compares it with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
