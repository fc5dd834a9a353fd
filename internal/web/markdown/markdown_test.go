package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		contains []string
		excludes []string
	}{
		{
			name:     "emphasis",
			source:   "Lorem *ipsum* **dolor**",
			contains: []string{"<em>ipsum</em>", "<strong>dolor</strong>"},
		},
		{
			name:     "raw script is not rendered",
			source:   "hi <script>alert(1)</script>",
			excludes: []string{"<script>"},
		},
		{
			name:     "javascript link is dropped",
			source:   "[click](javascript:alert(1))",
			excludes: []string{"javascript:"},
		},
		{
			name:     "external links get nofollow",
			source:   "[docs](https://example.com/docs)",
			contains: []string{`href="https://example.com/docs"`, `rel="nofollow`},
		},
		{
			name:     "fenced code",
			source:   "```\nfmt.Println(1 < 2)\n```",
			contains: []string{"<pre><code>", "1 &lt; 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Render(tt.source)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}
