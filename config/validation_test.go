package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatorRequireNonEmpty(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantError bool
	}{
		{name: "non-empty value", value: "valid", wantError: false},
		{name: "empty value", value: "", wantError: true},
		{name: "whitespace only", value: "  \t", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			v.RequireNonEmpty("test_field", tt.value)
			assert.Equal(t, tt.wantError, v.HasErrors())
		})
	}
}

func TestValidatorFloatRange(t *testing.T) {
	v := NewValidator().ValidateFloatRange("temperature", 0.4, 0, 2)
	assert.False(t, v.HasErrors())

	v = NewValidator().ValidateFloatRange("temperature", 2.5, 0, 2)
	assert.True(t, v.HasErrors())
	assert.Equal(t, "temperature", v.Errors()[0].Field)
}

func TestValidatorOneOf(t *testing.T) {
	assert.NoError(t, NewValidator().ValidateOneOf("format", "json", "json", "text").Error())
	assert.Error(t, NewValidator().ValidateOneOf("format", "xml", "json", "text").Error())
}

func TestValidatorCombinedError(t *testing.T) {
	v := NewValidator()
	v.RequireNonEmpty("model", "").ValidateFloatRange("temperature", -1, 0, 2)

	err := v.Error()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "model: value cannot be empty")
	assert.Contains(t, err.Error(), "temperature: value must be between 0.00 and 2.00")
	assert.Len(t, v.Errors(), 2)
}

func TestValidateLLMConfig(t *testing.T) {
	assert.NoError(t, ValidateLLMConfig("gemini-2.0-flash", 0.4))
	assert.Error(t, ValidateLLMConfig("", 0.4))
	assert.Error(t, ValidateLLMConfig("gemini-2.0-flash", 3))
}
