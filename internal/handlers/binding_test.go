package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/graficaops/envelopamento-api/internal/models"
	"github.com/graficaops/envelopamento-api/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		body        string
		expected    services.ActionType
		expectError bool
	}{
		{
			name:     "Nested under action",
			body:     `{"action": {"type": "set_freight", "freight": "12,50"}}`,
			expected: services.ActionSetFreight,
		},
		{
			name:     "Nested under legacy key",
			body:     `{"acao": {"type": "set_observation", "observation": "x"}}`,
			expected: services.ActionSetObservation,
		},
		{
			name:     "Flat",
			body:     `{"type": "remove_piece", "piece_id": "p1"}`,
			expected: services.ActionRemovePiece,
		},
		{
			name:        "Invalid nested content",
			body:        `{"action": {"type": "set_freight", "freight": "abc"}}`,
			expectError: true,
		},
		{
			name:        "Nested key with wrong type",
			body:        `{"action": "set_freight"}`,
			expectError: true,
		},
		{
			name:        "Empty body",
			body:        ``,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body))

			var action services.Action
			err := BindNestedOrFlat(c, &action, "action", "acao")

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, action.Type)
		})
	}
}

func TestBindNestedOrFlatPayments(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, body := range []string{
		`{"payments": [{"method": "pix", "amount": 100}]}`,
		`[{"method": "pix", "amount": 100}]`,
	} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(body))

		var payments []models.Payment
		err := BindNestedOrFlat(c, &payments, "payments", "pagamentos")

		assert.NoError(t, err)
		assert.Equal(t, []models.Payment{{Method: "pix", Amount: 100}}, payments)
	}
}
