// Package services holds the application services between the HTTP
// transport and the parsing, analytics and store packages. Services own
// orchestration and validation; handlers own encoding; the store owns SQL.
package services
