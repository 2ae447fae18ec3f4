// Package tableui serves a local debugging API over a tablestore.Store.
//
// It lets developers:
//   - List tables and their row counts
//   - Run filter queries, optionally selecting columns
//   - Read, write and delete single rows
//   - Check how a filter string parses
//   - Scrape store metrics at /metrics
//
// Values travel as {"type": "Int64", "value": "5"} objects. Binary values are
// base64 and DateTime values are RFC 3339.
package tableui
