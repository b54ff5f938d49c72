// Package api defines the request and response messages of the fistein.v1
// services. Messages travel as JSON; money amounts are decimal strings with
// two fractional digits and timestamps are Unix seconds.
package api
