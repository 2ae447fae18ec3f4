package tableui

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/jamie-davis/AzureTableSpike/tablestorage/edm"
)

type jsonValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func encodeValue(v edm.Value) jsonValue {
	switch x := v.(type) {
	case edm.Binary:
		return jsonValue{Type: string(edm.TypeBinary), Value: base64.StdEncoding.EncodeToString(x)}
	case edm.DateTime:
		return jsonValue{Type: string(edm.TypeDateTime), Value: x.Time().Format(time.RFC3339Nano)}
	default:
		return jsonValue{Type: string(v.Type()), Value: v.String()}
	}
}

// encodeRow encodes every field that holds a value. Absent (nil) fields are
// left out.
func encodeRow(row edm.Row) map[string]jsonValue {
	out := make(map[string]jsonValue, len(row))
	for name, v := range row {
		if v == nil {
			continue
		}
		out[name] = encodeValue(v)
	}
	return out
}

func decodeRow(fields map[string]jsonValue) (edm.Row, error) {
	row := make(edm.Row, len(fields))
	for name, f := range fields {
		t, ok := edm.ParseType(f.Type)
		if !ok {
			return nil, fmt.Errorf("field %s: unknown type %q", name, f.Type)
		}
		v := edm.Parse(t, f.Value)
		if v == nil {
			return nil, fmt.Errorf("field %s: %q is not a valid %s", name, f.Value, t)
		}
		row[name] = v
	}
	return row, nil
}
