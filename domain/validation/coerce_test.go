package validation

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/onap/aai-gizmo-sub001/domain/schema"
	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
)

func TestCoerceBoolean(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		expected  any
		expectErr bool
	}{
		{"literal true", "true", true, false},
		{"literal false", "false", false, false},
		{"actual bool", true, true, false},
		{"direction in", "IN", "IN", false},
		{"direction out", "OUT", "OUT", false},
		{"case sensitive", "True", nil, true},
		{"lowercase direction", "in", nil, true},
		{"yes", "yes", nil, true},
		{"number", int64(1), nil, true},
		{"null", nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.input, schema.PropBoolean)
			if tt.expectErr {
				assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCoerceNumbers(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		typ       schema.PropType
		expected  any
		expectErr bool
	}{
		{"int from string", "42", schema.PropInteger, int64(42), false},
		{"long from int64", int64(7), schema.PropLong, int64(7), false},
		{"int from integral float", 8.0, schema.PropInteger, int64(8), false},
		{"int from json number", json.Number("12"), schema.PropInteger, int64(12), false},
		{"int rejects fraction", 1.5, schema.PropInteger, nil, true},
		{"int rejects text", "abc", schema.PropInteger, nil, true},
		{"int rejects bool", true, schema.PropInteger, nil, true},
		{"float from string", "3.25", schema.PropFloat, 3.25, false},
		{"double from int", int64(2), schema.PropDouble, 2.0, false},
		{"double rejects text", "x", schema.PropDouble, nil, true},
		{"string from string", "h1", schema.PropString, "h1", false},
		{"string from int", int64(5), schema.PropString, "5", false},
		{"string from float", 2.5, schema.PropString, "2.5", false},
		{"string from bool", false, schema.PropString, "false", false},
		{"string rejects map", map[string]any{"a": 1}, schema.PropString, nil, true},
		{"string rejects array", []any{"a"}, schema.PropString, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.input, tt.typ)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
