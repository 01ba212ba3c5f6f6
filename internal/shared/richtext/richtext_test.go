package richtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Markdown(t *testing.T) {
	r := NewRenderer()

	out, err := r.Markdown("Vérifier **le câblage** DC\n\n- string 1\n- string 2")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>le câblage</strong>")
	assert.Contains(t, out, "<li>string 1</li>")
}

func TestRenderer_SanitizeDropsScripts(t *testing.T) {
	r := NewRenderer()

	out := r.Sanitize(`<div class="severity-box severity-high" onclick="x()">Élevée<script>alert(1)</script></div>`)
	assert.Equal(t, `<div class="severity-box severity-high">Élevée</div>`, out)
}
