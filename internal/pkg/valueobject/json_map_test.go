package valueobject_test

import (
	"encoding/json"
	"testing"

	"github.com/shandysiswandi/gotfa/internal/pkg/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMap_Scan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   any
		want    valueobject.JSONMap
		wantErr error
	}{
		{name: "nil", value: nil, want: valueobject.JSONMap{}},
		{name: "bytes", value: []byte(`{"a":"b"}`), want: valueobject.JSONMap{"a": "b"}},
		{name: "string", value: `{"n":1}`, want: valueobject.JSONMap{"n": float64(1)}},
		{name: "raw message", value: json.RawMessage(`{}`), want: valueobject.JSONMap{}},
		{name: "map", value: map[string]any{"x": true}, want: valueobject.JSONMap{"x": true}},
		{name: "empty bytes", value: []byte{}, want: valueobject.JSONMap{}},
		{name: "unsupported", value: 42, wantErr: valueobject.ErrScanValueNotBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got valueobject.JSONMap
			err := got.Scan(tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONMap_Value(t *testing.T) {
	t.Parallel()

	v, err := valueobject.JSONMap(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)

	v, err = valueobject.JSONMap{"k": "v"}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":"v"}`, string(v.([]byte)))
}

func TestJSONMap_GetBoolIsStrict(t *testing.T) {
	t.Parallel()

	m := valueobject.JSONMap{
		"yes":    true,
		"no":     false,
		"string": "true",
		"number": float64(1),
	}

	assert.True(t, m.GetBool("yes"))
	assert.False(t, m.GetBool("no"))
	assert.False(t, m.GetBool("string"))
	assert.False(t, m.GetBool("number"))
	assert.False(t, m.GetBool("missing"))
}

func TestJSONMap_GetString(t *testing.T) {
	t.Parallel()

	m := valueobject.JSONMap{"s": "x", "f": float64(7)}

	assert.Equal(t, "x", m.GetString("s"))
	assert.Empty(t, m.GetString("f"))
	assert.Empty(t, m.GetString("missing"))
}
