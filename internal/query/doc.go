// Package query provides the retrieval descriptor passed from Models to
// DataSources.
//
// Query holds no execution logic. SQL backends compile it to a
// parameterized SELECT; the in-memory backend evaluates it directly.
// Filters are conjunctions of equality terms only:
//
//	f := query.NewFilter(query.Term{Field: "authors", Value: record.String("Orwell")})
//	q := query.New("books_books").WithFilter(f)
//
// The order clause is carried through untouched. Backends that honor it
// use ParseOrder, which accepts "field [ASC|DESC]" lists only.
package query
