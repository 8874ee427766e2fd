package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("```JSON {\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, StripFences("  {\"a\":1}  "))
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"object", `{"a":1}`, `{"a":1}`},
		{"array", `[{"url":"https://vietjack.com"}]`, `[{"url":"https://vietjack.com"}]`},
		{"leading prose", `Result: {"a":{"b":[1,2]}} done`, `{"a":{"b":[1,2]}}`},
		{"braces in strings", `{"s":"} not the end {","n":1}`, `{"s":"} not the end {","n":1}`},
		{"escaped quote", `{"s":"say \"hi\" }","n":2}`, `{"s":"say \"hi\" }","n":2}`},
		{"first of two", `{"a":1} {"b":2}`, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSON_Errors(t *testing.T) {
	for _, in := range []string{"", "no json here", `{"a":[1,2}`, `{"a":1`} {
		_, err := ExtractJSON(in)
		assert.Error(t, err, in)
	}
}
