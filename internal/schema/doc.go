// Package schema loads Model declarations written in CUE.
//
// A declaration file contains a top-level "model" struct keyed by
// collection name:
//
//	model: books_books: {
//		fields: ["id", "isbn", "title", "authors"]
//		unique: ["isbn"]
//	}
//
// Field order in the list is the Model's declared order.
package schema
