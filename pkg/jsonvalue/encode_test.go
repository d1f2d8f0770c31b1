package jsonvalue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"ordered object", `{"b":1,"a":[true,null,"x"],"c":{"z":1.50,"y":-2e3}}`},
		{"empty containers", `{"a":{},"b":[]}`},
		{"escaped string", `{"k":"line\nbreak \"quoted\""}`},
		{"scalar", `"just a string"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse([]byte(tt.input))
			require.NoError(t, err)

			out, err := Marshal(v)
			require.NoError(t, err)
			assert.Equal(t, tt.input, string(out))
		})
	}
}

func TestMarshal_NoHTMLEscaping(t *testing.T) {
	out, err := Marshal(String("<a> & <b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a> & <b>"`, string(out))
}

func TestMarshal_InvalidNumber(t *testing.T) {
	_, err := Marshal(Number("NaN"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestMarshalIndent(t *testing.T) {
	obj := NewObject()
	obj.Set("name", String("x"))
	obj.Set("list", Array{Number("1")})

	out, err := MarshalIndent(obj, "", "  ")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"x\",\n  \"list\": [\n    1\n  ]\n}", string(out))
}

func TestObject_MarshalJSONThroughEncodingJSON(t *testing.T) {
	obj := NewObject()
	obj.Set("z", Number("1"))
	obj.Set("a", Null{})

	out, err := json.Marshal(struct {
		Data *Object `json:"data"`
	}{Data: obj})
	require.NoError(t, err)
	assert.Equal(t, `{"data":{"z":1,"a":null}}`, string(out))
}

func TestToYAML(t *testing.T) {
	v, err := Parse([]byte(`{"b":"true","a":1,"c":[null,false],"d":1.5}`))
	require.NoError(t, err)

	out, err := ToYAML(v)
	require.NoError(t, err)

	expected := "b: \"true\"\na: 1\nc:\n  - null\n  - false\nd: 1.5\n"
	assert.Equal(t, expected, string(out))

	back, err := FromYAML(out)
	require.NoError(t, err)
	assert.True(t, Equal(v, back))
}
