package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruthyUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"true", `true`, true},
		{"false", `false`, false},
		{"one", `1`, true},
		{"zero", `0`, false},
		{"float", `0.5`, true},
		{"null", `null`, false},
		{"empty string", `""`, false},
		{"nonempty string", `"yes"`, true},
		{"object", `{"a":1}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Truthy
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got.Bool())
		})
	}
}

func TestTruthyUnmarshal_MalformedInput(t *testing.T) {
	var got Truthy
	assert.Error(t, json.Unmarshal([]byte(`{`), &got))
}

func TestTruthyInStruct(t *testing.T) {
	var app JoinApplication
	require.NoError(t, json.Unmarshal([]byte(`{"fullName":"ana","acceptedTerms":1}`), &app))
	assert.True(t, app.AcceptedTerms.Bool())

	require.NoError(t, json.Unmarshal([]byte(`{"fullName":"ben","acceptedTerms":0}`), &app))
	assert.False(t, app.AcceptedTerms.Bool())
}
