// tsq inspects and runs table query filters.
//
// # Commands
//
//	tsq lex <filter>      Print the tokens of a filter
//	tsq parse <filter>    Print the parsed filter, or why it does not parse
//	tsq query <filter>    Run a filter against a table loaded from a fixture
//	tsq serve             Serve the JSON debug API and /metrics
//
// # Examples
//
//	tsq parse "Total gt 10 and (Status eq 'open' or Priority eq true)"
//	tsq query --fixture orders.yaml --table orders --select Total "Total gt 10"
//	tsq serve --fixture orders.yaml --addr :3070
//
// Defaults for --fixture, --table, --addr and logging can be kept in tsq.yaml:
//
//	fixture: ./testdata/orders.yaml
//	table: orders
//	addr: localhost:3070
//	log:
//	  level: debug
//	  format: text
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
