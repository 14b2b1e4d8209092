// Package queryir is the filter language for the harvest log.
//
// A Query is a predicate tree over the logical fields of a logged
// interaction plus an optional limit. It says nothing about storage: the
// querysql package compiles it to parameterized SQLite, and field names
// here are the names used in JSON records and on the command line, not
// column names.
//
// Predicate is a sealed interface (marker method pattern). Only Equals,
// Since and And implement it, so backends can switch exhaustively:
//
//	switch p := pred.(type) {
//	case Equals:
//	case Since:
//	case And:
//	}
//
// Values are typed by field. String fields take strings, integer fields
// take int or int64. Validate rejects anything else before a backend
// sees it.
package queryir
