// Package filterexpr is the entry point for parsing and evaluating table
// query filters such as
//
//	PartitionKey eq 'orders' and (Total gt 100.0 or Priority eq true)
package filterexpr

import (
	"iter"

	"github.com/jamie-davis/AzureTableSpike/tablestorage/edm"
	"github.com/jamie-davis/AzureTableSpike/tablestorage/filterexpr/ast"
	"github.com/jamie-davis/AzureTableSpike/tablestorage/filterexpr/parser"
)

// External API for the parser.

func Parse(text string) *parser.ParseResult {
	return parser.Parse(text)
}

// Eval reports whether row satisfies root.
func Eval(root ast.Clause, row edm.Row) (bool, error) {
	return root.Eval(row)
}

// SyntaxError is returned by Compile for filters that do not parse.
type SyntaxError struct {
	Filter  string
	Message string
}

func (e *SyntaxError) Error() string {
	return "invalid filter " + e.Filter + ": " + e.Message
}

// Filter is a parsed filter ready to be run against many rows.
type Filter struct {
	text string
	root ast.Clause
}

// Compile parses text once for repeated evaluation.
func Compile(text string) (*Filter, error) {
	result := parser.Parse(text)
	if !result.Success() {
		return nil, &SyntaxError{Filter: text, Message: result.Error}
	}
	return &Filter{text: text, root: result.Root}, nil
}

func (f *Filter) String() string {
	return f.root.Describe()
}

func (f *Filter) Match(row edm.Row) (bool, error) {
	return f.root.Eval(row)
}

// Select yields the rows that match. An evaluation error is yielded with a
// nil row and ends the sequence.
func (f *Filter) Select(rows iter.Seq[edm.Row]) iter.Seq2[edm.Row, error] {
	return func(yield func(edm.Row, error) bool) {
		for row := range rows {
			ok, err := f.root.Eval(row)
			if err != nil {
				yield(nil, err)
				return
			}
			if ok && !yield(row, nil) {
				return
			}
		}
	}
}
