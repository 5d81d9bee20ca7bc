package mailer

import (
	"bytes"
	"testing"

	"sales-assistant-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLeadMessage(t *testing.T) {
	lead := &entity.Lead{
		Name:       "Jane <Doe>",
		Email:      "jane@acme.io",
		Intent:     "pricing",
		Confidence: 0.8,
		Topics:     []string{"mobile apps", "pricing"},
		Message:    "How much for an app?",
	}
	m := BuildLeadMessage("bot@studio.dev", "sales@studio.dev", lead)

	assert.Equal(t, []string{"sales@studio.dev"}, m.GetHeader("To"))
	assert.Equal(t, []string{"jane@acme.io"}, m.GetHeader("Reply-To"))
	assert.Equal(t, []string{"New lead: Jane <Doe> (pricing)"}, m.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	body := buf.String()
	assert.Contains(t, body, "Jane &lt;Doe&gt;")
	assert.Contains(t, body, "mobile apps, pricing")
}
