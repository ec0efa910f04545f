// Package todo holds the task list, its in-memory store, and validation of
// the persisted document.
//
// The persisted document (todos.json) is a bare JSON array:
//
//	[
//	  {
//	    "id": 1,
//	    "text": "buy milk",
//	    "completed": false
//	  }
//	]
//
// # Identifiers
//
// Ids are assigned by the Store as one greater than the largest id present,
// or 1 when the list is empty. Callers never choose ids, except through
// ReplaceAll/LoadFrom which install a caller-supplied list as-is.
//
// # Ordering
//
// Insertion order is preserved. Create appends; Delete removes in place and
// leaves the remaining tasks in their original order.
//
// # Validation
//
// Validate checks a raw document against the embedded JSON Schema
// (todos.schema.json, draft 2020-12) and then runs minimal checks that a
// schema cannot express, such as pairwise-distinct ids.
package todo
