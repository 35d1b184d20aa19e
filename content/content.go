// Package content prepares user submitted meal text for storage.
//
// Meal instructions are rendered unescaped on the meal page, so every write
// path must pass them through Instructions first. The read path trusts stored
// markup and does no escaping of its own.
package content

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(goldhtml.WithHardWraps()),
	)
	policy = newInstructionsPolicy()
)

func newInstructionsPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("p", "span", "ol", "ul", "li")
	p.RequireNoFollowOnLinks(true)
	return p
}

// Instructions converts Markdown source into sanitized HTML safe to embed unescaped.
func Instructions(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render instructions: %w", err)
	}
	return strings.TrimSpace(policy.Sanitize(buf.String())), nil
}

// Slugify derives a URL-safe slug from a meal title, e.g. "Crème Brûlée!" -> "creme-brulee".
func Slugify(title string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
