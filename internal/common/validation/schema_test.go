package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoiResponse(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		valid bool
		field string
	}{
		{"valid", `{"pois":[{"name":"Belem Tower","category":"landmark"}]}`, true, ""},
		{"empty list still conforms", `{"pois":[]}`, true, ""},
		{"extra keys tolerated", `{"pois":[{"name":"A"}],"note":"x"}`, true, ""},
		{"missing pois", `{"places":[]}`, false, "(root)"},
		{"name wrong type", `{"pois":[{"name":42}]}`, false, "pois.0.name"},
		{"empty name", `{"pois":[{"name":""}]}`, false, "pois.0.name"},
		{"pois not array", `{"pois":"Belem"}`, false, "pois"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := PoiResponse.ValidateBytes([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.field != "" {
				assert.True(t, res.HasErrors(tt.field), res.Error())
			}
		})
	}
}

func TestValidateBytes_NotJSON(t *testing.T) {
	_, err := PoiResponse.ValidateBytes([]byte("sure! here are some places"))
	assert.Error(t, err)
}

func TestTripRequest(t *testing.T) {
	res, err := TripRequest.ValidateInput(map[string]interface{}{
		"city":        "Lisbon",
		"days":        3,
		"preferences": []interface{}{"food", "museums"},
		"currency":    "EUR",
	})
	require.NoError(t, err)
	assert.True(t, res.Valid, res.Error())

	res, err = TripRequest.ValidateInput(map[string]interface{}{"city": "", "days": 0})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.True(t, res.HasErrors("city"))
	assert.True(t, res.HasErrors("days"))
	assert.Len(t, res.GetErrorMessages(), 2)
}

func TestBookingIntent(t *testing.T) {
	res, err := BookingIntent.ValidateInput(map[string]interface{}{"city": "Paris", "checkin": "06/01/2025"})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Len(t, res.GetErrorsForField("checkin"), 1)
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
}
