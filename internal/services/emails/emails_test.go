package emails

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerification(t *testing.T) {
	msg := Verification("Ann", "Ab3dE9")

	assert.Equal(t, CategoryVerification, msg.Category)
	assert.NotEmpty(t, msg.Subject)
	assert.Contains(t, msg.Text, "Hello Ann")
	assert.Contains(t, msg.Text, "Ab3dE9")
	assert.Contains(t, msg.HTML, "Ab3dE9")
}

func TestVerification_EscapesHTML(t *testing.T) {
	msg := Verification("<b>Ann</b>", "Ab3dE9")

	assert.NotContains(t, msg.HTML, "<b>Ann</b>")
	assert.Contains(t, msg.HTML, "&lt;b&gt;Ann&lt;/b&gt;")
	assert.Contains(t, msg.Text, "<b>Ann</b>")
}
