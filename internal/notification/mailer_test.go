package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderBody(t *testing.T) {
	body := renderBody(Envelope{
		Type: TypeProductRejected,
		Data: map[string]any{
			"productName": "Manufactured Home Registry",
			"remarks":     "missing proof of insurance",
		},
	})
	assert.Contains(t, body, "Product: Manufactured Home Registry")
	assert.Contains(t, body, "has been rejected")
	assert.Contains(t, body, "Remarks: missing proof of insurance")
}

func TestRenderBodyOmitsEmptyFields(t *testing.T) {
	body := renderBody(Envelope{Type: TypeProductApproved, Data: map[string]any{}})
	assert.NotContains(t, body, "Product:")
	assert.NotContains(t, body, "Remarks:")
	assert.Contains(t, body, "has been approved")
}
