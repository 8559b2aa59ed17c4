package tool

import (
	"encoding/json"
	"testing"
)

func TestValidateInput(t *testing.T) {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"datetime_str": map[string]interface{}{
				"type": "string",
			},
			"duration": map[string]interface{}{
				"type": "integer",
			},
			"unit": map[string]interface{}{
				"type": "string",
				"enum": []interface{}{"days", "months"},
			},
			"tags": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "string",
				},
			},
		},
		"required": []interface{}{"datetime_str"},
	}

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "Valid input",
			input:   `{"datetime_str": "2024-01-31", "duration": 1, "unit": "months", "tags": ["a"]}`,
			wantErr: false,
		},
		{
			name:    "Missing required field",
			input:   `{"duration": 30}`,
			wantErr: true,
		},
		{
			name:    "Empty input misses required field",
			input:   ``,
			wantErr: true,
		},
		{
			name:    "Invalid type (string vs integer)",
			input:   `{"datetime_str": "2024-01-31", "duration": "thirty"}`,
			wantErr: true,
		},
		{
			name:    "Fractional integer",
			input:   `{"datetime_str": "2024-01-31", "duration": 1.5}`,
			wantErr: true,
		},
		{
			name:    "Value outside enum",
			input:   `{"datetime_str": "2024-01-31", "unit": "fortnights"}`,
			wantErr: true,
		},
		{
			name:    "Invalid array item type",
			input:   `{"datetime_str": "2024-01-31", "tags": [123]}`,
			wantErr: true,
		},
		{
			name:    "Not an object",
			input:   `["2024-01-31"]`,
			wantErr: true,
		},
		{
			name:    "Extra fields (allowed)",
			input:   `{"datetime_str": "2024-01-31", "extra": "field"}`,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInput(schema, json.RawMessage(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInput() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateInput_NestedObjectPath(t *testing.T) {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"invocations": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"name": map[string]interface{}{"type": "string"},
					},
					"required": []interface{}{"name"},
				},
			},
		},
	}

	err := ValidateInput(schema, json.RawMessage(`{"invocations": [{"name": "a"}, {}]}`))
	if err == nil || err.Error() != "missing required field: invocations[1].name" {
		t.Fatalf("unexpected error: %v", err)
	}
}
