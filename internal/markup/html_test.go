package markup

import (
	"strings"
	"testing"
)

func TestFromMarkdown(t *testing.T) {
	got, err := FromMarkdown("# Mira\n\nA *quiet* ranger.")
	if err != nil {
		t.Fatalf("FromMarkdown: %v", err)
	}
	want := "<h1>Mira</h1>\n<p>A <em>quiet</em> ranger.</p>"
	if got != want {
		t.Fatalf("FromMarkdown() = %q, want %q", got, want)
	}

	if got, _ := FromMarkdown("  \n"); got != "" {
		t.Fatalf("FromMarkdown(blank) = %q", got)
	}
}

func TestFromMarkdownKeepsHTML(t *testing.T) {
	got, err := FromMarkdown("<p>Yew, strung with elven hair.</p>")
	if err != nil {
		t.Fatalf("FromMarkdown: %v", err)
	}
	if got != "<p>Yew, strung with elven hair.</p>" {
		t.Fatalf("FromMarkdown() = %q", got)
	}
}

func TestMarkdownRoundTrip(t *testing.T) {
	html, err := FromMarkdown("## Traits\n\n- Brave\n- Loyal")
	if err != nil {
		t.Fatalf("FromMarkdown: %v", err)
	}
	if got := ToMarkdown(html); got != "## Traits\n\n- Brave\n- Loyal" {
		t.Fatalf("ToMarkdown(FromMarkdown()) = %q", got)
	}
}

func TestSanitize(t *testing.T) {
	got := Sanitize(`<p onclick="steal()">Hi <script>alert(1)</script><strong>there</strong></p>`)
	if strings.Contains(got, "script") || strings.Contains(got, "onclick") {
		t.Fatalf("Sanitize() kept unsafe content: %q", got)
	}
	if !strings.Contains(got, "<strong>there</strong>") {
		t.Fatalf("Sanitize() dropped formatting: %q", got)
	}
}
