package content

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstructionsRendersMarkdown(t *testing.T) {
	out, err := Instructions("1. Boil **pasta**\n2. Fry pancetta")
	require.NoError(t, err)
	require.Contains(t, out, "<ol>")
	require.Contains(t, out, "<strong>pasta</strong>")
	require.Contains(t, out, "<li>Fry pancetta</li>")
}

func TestInstructionsKeepsLineBreaks(t *testing.T) {
	out, err := Instructions("Boil water\nAdd salt")
	require.NoError(t, err)
	require.Contains(t, out, "<br")
}

func TestInstructionsStripsScripts(t *testing.T) {
	cases := []string{
		"<script>alert(1)</script>Stir",
		`<img src=x onerror="alert(1)">`,
		"[click](javascript:alert(1))",
	}
	for _, src := range cases {
		out, err := Instructions(src)
		require.NoError(t, err)
		require.NotContains(t, out, "<script")
		require.NotContains(t, out, "onerror")
		require.NotContains(t, out, "javascript:")
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Spaghetti Carbonara":   "spaghetti-carbonara",
		"  Crème Brûlée!  ":     "creme-brulee",
		"Mom's 3-Bean Chili":    "mom-s-3-bean-chili",
		"---":                   "",
		"Juicy   Cheese Burger": "juicy-cheese-burger",
	}
	for in, want := range tests {
		require.Equal(t, want, Slugify(in), in)
	}
}
