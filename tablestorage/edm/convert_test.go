package edm

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	tests := []struct {
		name string
		got  Value
		want Value
	}{
		{"int", FromInt("42"), Int32(42)},
		{"int negative", FromInt("-7"), Int32(-7)},
		{"int overflow", FromInt("3000000000"), nil},
		{"int garbage", FromInt("4x"), nil},
		{"long", FromLong("3000000000"), Int64(3000000000)},
		{"long garbage", FromLong(""), nil},
		{"double", FromDouble("1.5"), Double(1.5)},
		{"double garbage", FromDouble("1.5.5"), nil},
		{"string", FromString("it's"), String("it's")},
		{"guid", FromGuid("6f9619ff-8b86-d011-b42d-00cf4fc964ff"), Guid(uuid.MustParse("6f9619ff-8b86-d011-b42d-00cf4fc964ff"))},
		{"guid garbage", FromGuid("not-a-guid"), nil},
		{"datetime rfc3339", FromDateTime("2024-03-01T10:20:30Z"), DateTime(time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC))},
		{"datetime offset", FromDateTime("2024-03-01T12:20:30+02:00"), DateTime(time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC))},
		{"datetime date only", FromDateTime("2024-03-01"), DateTime(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))},
		{"datetime no zone", FromDateTime("2024-03-01T10:20:30"), DateTime(time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC))},
		{"datetime garbage", FromDateTime("yesterday"), nil},
		{"boolean", FromBoolean("true"), Boolean(true)},
		{"binary", FromBinary("AQID"), Binary{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.want == nil {
				assert.Nil(t, tt.got)
				return
			}
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestParse(t *testing.T) {
	assert.Equal(t, Int64(5), Parse(TypeInt64, "5"))
	assert.Equal(t, Boolean(false), Parse(TypeBoolean, "false"))
	assert.Nil(t, Parse(Type("Decimal"), "5"))

	typ, ok := ParseType("Guid")
	assert.True(t, ok)
	assert.Equal(t, TypeGuid, typ)
	_, ok = ParseType("guid")
	assert.False(t, ok)
}

func TestRow_Clone(t *testing.T) {
	row := Row{"a": Binary{1, 2}, "b": Int32(1)}
	clone := row.Clone()
	assert.Equal(t, row, clone)

	clone["a"].(Binary)[0] = 9
	clone["b"] = Int32(2)
	assert.Equal(t, Binary{1, 2}, row["a"])
	assert.Equal(t, Int32(1), row["b"])

	assert.Nil(t, Row(nil).Clone())
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "0x0102", Binary{1, 2}.String())
	assert.Equal(t, "2024-03-01T10:20:30Z", DateTime(time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)).String())
	assert.Equal(t, "1.5", Double(1.5).String())
	assert.Equal(t, "absent", TypeOf(nil))
	assert.Equal(t, "Int64", TypeOf(Int64(1)))
}
