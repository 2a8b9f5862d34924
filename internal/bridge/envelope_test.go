package bridge

import (
	stdjson "encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    ParseOutcome
	}{
		{"empty", nil, PayloadEmpty},
		{"zero length", []byte{}, PayloadEmpty},
		{"object", []byte(`{"timestamp":1000,"temperature":21.5}`), PayloadValid},
		{"empty object", []byte(`{}`), PayloadValid},
		{"malformed", []byte(`{"timestamp":`), PayloadInvalid},
		{"array", []byte(`[1,2,3]`), PayloadInvalid},
		{"scalar", []byte(`42`), PayloadInvalid},
		{"null", []byte(`null`), PayloadInvalid},
		{"whitespace", []byte(`   `), PayloadInvalid},
		{"not utf8", []byte{0xff, 0xfe, '{', '}'}, PayloadInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParsePayload(tt.payload)
			assert.Equal(t, tt.want, res.Outcome)
			if tt.want == PayloadInvalid {
				assert.Error(t, res.Reason)
				assert.Nil(t, res.Fields)
			}
		})
	}
}

func TestParsePayload_KeepsIntegersExact(t *testing.T) {
	res := ParsePayload([]byte(`{"timestamp":1700000000123,"extra":"ignored"}`))
	require.Equal(t, PayloadValid, res.Outcome)

	n, ok := res.Fields["timestamp"].(stdjson.Number)
	require.True(t, ok, "expected json.Number, got %T", res.Fields["timestamp"])
	assert.Equal(t, "1700000000123", n.String())
}

func TestParseOutcome_String(t *testing.T) {
	assert.Equal(t, "valid", PayloadValid.String())
	assert.Equal(t, "empty", PayloadEmpty.String())
	assert.Equal(t, "invalid", PayloadInvalid.String())
}
