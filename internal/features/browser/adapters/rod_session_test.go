package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ysmood/gson"
)

// TestPropertyString verifies which DOM property values are accepted as attribute values.
func TestPropertyString(t *testing.T) {
	tests := []struct {
		name     string
		value    gson.JSON
		expected string
		ok       bool
	}{
		{name: "AbsoluteHref", value: gson.New("https://admin.weedmaps.com/orders/123"), expected: "https://admin.weedmaps.com/orders/123", ok: true},
		{name: "Empty", value: gson.New(""), ok: false},
		{name: "Nil", value: gson.New(nil), ok: false},
		{name: "NotString", value: gson.New(42), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := propertyString(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}
