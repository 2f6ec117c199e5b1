// Package record provides the data containers exchanged between Models and
// DataSources.
//
// A Record is an ordered field→Value mapping plus a collection tag. A
// RecordSet is an ordered sequence of Records produced by a retrieval.
// Value is a sealed tagged union (Null, Bool, Int, Float, String, Bytes,
// Date, Timestamp, Array), so backend conversions switch over a closed set.
//
// This package imports nothing internal. Validation of field names against
// a Model's whitelist happens in package model, never here.
//
// JSON encoding keeps field order and is the wire format exposed upward:
// a RecordSet encodes as a JSON array of flat objects. MarshalCanonical
// gives an order-independent encoding for comparisons and fixtures.
package record
