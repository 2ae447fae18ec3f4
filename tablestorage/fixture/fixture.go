// Package fixture loads seed data into a table store from YAML.
//
// A fixture names tables and lists their rows:
//
//	tables:
//	  orders:
//	    - partitionKey: c1
//	      rowKey: o1
//	      fields:
//	        Total: 10.5                     # Double
//	        Count: 3                        # Int32
//	        Paid: true                      # Boolean
//	        Note: hello                     # String
//	        Id: {type: Guid, value: 9e37e338-27b2-4f32-affa-dc74f017af1d}
//	        Big: {type: Int64, value: "5"}
//
// Bare scalars take the type their YAML tag implies. Any other type is given
// explicitly with a {type, value} mapping.
package fixture

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/jamie-davis/AzureTableSpike/tablestorage/edm"
	"github.com/jamie-davis/AzureTableSpike/tablestorage/tablestore"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

type Fixture struct {
	Tables map[string][]Row `yaml:"tables"`
}

type Row struct {
	PartitionKey string           `yaml:"partitionKey"`
	RowKey       string           `yaml:"rowKey"`
	Fields       map[string]Field `yaml:"fields"`
}

// Values converts the row's fields into a store row.
func (r Row) Values() edm.Row {
	out := make(edm.Row, len(r.Fields))
	for name, f := range r.Fields {
		out[name] = f.Value
	}
	return out
}

// Field is one typed value read from YAML.
type Field struct {
	Value edm.Value
}

type typedField struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

func (f *Field) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		v, err := scalarValue(node)
		if err != nil {
			return err
		}
		f.Value = v
		return nil
	case yaml.MappingNode:
		var tf typedField
		if err := node.Decode(&tf); err != nil {
			return err
		}
		t, ok := edm.ParseType(tf.Type)
		if !ok {
			return fmt.Errorf("line %d: unknown type %q", node.Line, tf.Type)
		}
		v := edm.Parse(t, tf.Value)
		if v == nil {
			return fmt.Errorf("line %d: %q is not a valid %s", node.Line, tf.Value, t)
		}
		f.Value = v
		return nil
	default:
		return fmt.Errorf("line %d: field must be a scalar or a {type, value} mapping", node.Line)
	}
}

func scalarValue(node *yaml.Node) (edm.Value, error) {
	switch node.ShortTag() {
	case "!!int":
		n, err := strconv.ParseInt(node.Value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			return edm.Int32(n), nil
		}
		return edm.Int64(n), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, err
		}
		return edm.Double(f), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return edm.Boolean(b), nil
	case "!!timestamp":
		var t time.Time
		if err := node.Decode(&t); err != nil {
			return nil, err
		}
		return edm.DateTime(t.UTC()), nil
	default:
		return edm.String(node.Value), nil
	}
}

func Parse(r io.Reader) (*Fixture, error) {
	var f Fixture
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return &Fixture{}, nil
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

func ParseFile(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	f, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Load inserts every row of f into store. Tables load concurrently, at most
// four at a time; rows of a table load in order. The first failure stops
// the load and is returned.
func Load(ctx context.Context, store *tablestore.Store, f *Fixture) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for name, rows := range f.Tables {
		g.Go(func() error {
			ctx := tablestore.WithOwner(ctx)
			for _, row := range rows {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := store.StoreNew(ctx, name, row.PartitionKey, row.RowKey, row.Values()); err != nil {
					return fmt.Errorf("load %s: %w", name, err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}
