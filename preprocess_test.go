package mdexport

import (
	"strings"
	"testing"
)

func TestNormalizeLineEndings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "crlf", input: "a\r\nb\r\nc", want: "a\nb\nc"},
		{name: "bare cr", input: "a\rb", want: "a\nb"},
		{name: "already lf", input: "a\nb", want: "a\nb"},
		{name: "mixed", input: "a\r\nb\rc\nd", want: "a\nb\nc\nd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := normalizeLineEndings(tt.input); got != tt.want {
				t.Errorf("normalizeLineEndings(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitFrontMatter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantMeta DocumentMeta
		wantBody string
	}{
		{
			name:     "title author date",
			input:    "---\ntitle: My Doc\nauthor: Jo\ndate: 2024-05-01\n---\n# Heading",
			wantMeta: DocumentMeta{Title: "My Doc", Author: "Jo", Date: "2024-05-01"},
			wantBody: "# Heading",
		},
		{
			name:     "no front matter",
			input:    "# Heading\ntext",
			wantBody: "# Heading\ntext",
		},
		{
			name:     "unclosed delimiter left untouched",
			input:    "---\ntitle: Lost\nno closing",
			wantBody: "---\ntitle: Lost\nno closing",
		},
		{
			name:     "malformed yaml still stripped",
			input:    "---\n: : [broken\n---\nBody",
			wantBody: "Body",
		},
		{
			name:     "unknown keys ignored",
			input:    "---\ntitle: T\ntags: [a, b]\n---\nBody",
			wantMeta: DocumentMeta{Title: "T"},
			wantBody: "Body",
		},
		{
			name:     "empty section",
			input:    "---\n---\nBody",
			wantBody: "Body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			meta, body := splitFrontMatter(tt.input)
			if meta != tt.wantMeta {
				t.Errorf("meta = %+v, want %+v", meta, tt.wantMeta)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestNormalizeCallouts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "known kind with title",
			input: "> [!warning] Be careful\n> Body",
			want:  "> **⚠️ Warning** Be careful\n>\n> Body",
		},
		{
			name:  "known kind without title",
			input: "> [!info]\n> Details",
			want:  "> **ℹ️ Info**\n>\n> Details",
		},
		{
			name:  "unknown kind gets generic label",
			input: "> [!custom] Something",
			want:  "> **📌 Custom** Something\n>",
		},
		{
			name:  "foldable marker",
			input: "> [!tip]- Hidden",
			want:  "> **🔥 Tip** Hidden\n>",
		},
		{
			name:  "plain blockquote unchanged",
			input: "> just a quote",
			want:  "> just a quote",
		},
		{
			name:  "inside code fence unchanged",
			input: "```\n> [!note] raw\n```",
			want:  "```\n> [!note] raw\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := normalizeCallouts(tt.input); got != tt.want {
				t.Errorf("normalizeCallouts(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRepairTreeFences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "listing pulled inside empty fence",
			input: "```\n```\nsrc/\n├── a.go\n└── b.go\n\nAfter, text.",
			want:  "```\nsrc/\n├── a.go\n└── b.go\n```\n\nAfter, text.",
		},
		{
			name:  "empty fence with no listing unchanged",
			input: "```\n```\nRegular prose, not a listing.",
			want:  "```\n```\nRegular prose, not a listing.",
		},
		{
			name:  "non-empty fence unchanged",
			input: "```\ncode\n```",
			want:  "```\ncode\n```",
		},
		{
			name:  "listing stops at blank line",
			input: "```\n```\ndir/\n\ndir2/",
			want:  "```\ndir/\n```\n\ndir2/",
		},
		{
			name:  "adjacent code blocks untouched",
			input: "```\nfoo\n```\n```\nsrc/main.go\n```",
			want:  "```\nfoo\n```\n```\nsrc/main.go\n```",
		},
		{
			name:  "listing-like lines inside a fence untouched",
			input: "```\nsrc/\n├── a.go\n```\nsrc/after.go",
			want:  "```\nsrc/\n├── a.go\n```\nsrc/after.go",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := repairTreeFences(tt.input); got != tt.want {
				t.Errorf("repairTreeFences(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripTrailingTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "tag line after blank line removed",
			input: "Some text.\n\n#alpha #beta-2\n",
			want:  "Some text.\n",
		},
		{
			name:  "nested tags removed",
			input: "Some text.\n\n#project/sub #x\n",
			want:  "Some text.\n",
		},
		{
			name:  "tag line directly under text kept",
			input: "Some text.\n#alpha",
			want:  "Some text.\n#alpha",
		},
		{
			name:  "non-tag final line kept",
			input: "Some text.\n\nsee #alpha",
			want:  "Some text.\n\nsee #alpha",
		},
		{
			name:  "heading untouched",
			input: "# Title",
			want:  "# Title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := stripTrailingTags(tt.input); got != tt.want {
				t.Errorf("stripTrailingTags(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRewriteWikilinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain link keeps target text",
			input: "See [[Other Note]] now",
			want:  "See Other Note now",
		},
		{
			name:  "labeled link keeps label",
			input: "See [[Other Note|the label]] now",
			want:  "See the label now",
		},
		{
			name:  "multiple links on one line",
			input: "[[A]] and [[B|bee]]",
			want:  "A and bee",
		},
		{
			name:  "inside code fence unchanged",
			input: "```\n[[A]]\n```",
			want:  "```\n[[A]]\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := rewriteWikilinks(tt.input); got != tt.want {
				t.Errorf("rewriteWikilinks(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripHighlightMarks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "single span", input: "a ==hi== b", want: "a hi b"},
		{name: "two spans", input: "==x== and ==y==", want: "x and y"},
		{name: "unmatched marks kept", input: "a ==open", want: "a ==open"},
		{name: "no marks", input: "plain", want: "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := stripHighlightMarks(tt.input); got != tt.want {
				t.Errorf("stripHighlightMarks(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractDiagrams(t *testing.T) {
	t.Parallel()

	t.Run("mermaid fence becomes placeholder", func(t *testing.T) {
		t.Parallel()

		input := "before\n\n```mermaid\nflowchart TD\n  A --> B\n```\n\nafter"
		content, links := extractDiagrams(input)

		if len(links) != 1 {
			t.Fatalf("got %d links, want 1", len(links))
		}
		token := diagramPlaceholder(0)
		if !strings.Contains(content, token) {
			t.Errorf("content %q missing placeholder %q", content, token)
		}
		if strings.Contains(content, "flowchart TD") {
			t.Errorf("diagram source leaked into content: %q", content)
		}

		link := links[token]
		if link.Kind != "Flowchart" {
			t.Errorf("Kind = %q, want %q", link.Kind, "Flowchart")
		}
		if link.Source != "flowchart TD\n  A --> B" {
			t.Errorf("Source = %q", link.Source)
		}
		if !strings.HasPrefix(link.URL, MermaidBaseURL+"#pako:") {
			t.Errorf("URL = %q, want %s#pako: prefix", link.URL, MermaidBaseURL)
		}
	})

	t.Run("two diagrams get distinct placeholders", func(t *testing.T) {
		t.Parallel()

		input := "```mermaid\npie\n```\n\n```mermaid\ngantt\n```"
		content, links := extractDiagrams(input)

		if len(links) != 2 {
			t.Fatalf("got %d links, want 2", len(links))
		}
		for _, token := range []string{diagramPlaceholder(0), diagramPlaceholder(1)} {
			if !strings.Contains(content, token) {
				t.Errorf("content missing placeholder %q", token)
			}
			if _, ok := links[token]; !ok {
				t.Errorf("links missing entry for %q", token)
			}
		}
	})

	t.Run("non-mermaid fence untouched", func(t *testing.T) {
		t.Parallel()

		input := "```go\nfunc main() {}\n```"
		content, links := extractDiagrams(input)

		if len(links) != 0 {
			t.Fatalf("got %d links, want 0", len(links))
		}
		if content != input {
			t.Errorf("content = %q, want unchanged", content)
		}
	})

	t.Run("unclosed mermaid fence degrades to code", func(t *testing.T) {
		t.Parallel()

		input := "```mermaid\nflowchart TD"
		content, links := extractDiagrams(input)

		if len(links) != 0 {
			t.Fatalf("got %d links, want 0", len(links))
		}
		if !strings.Contains(content, "flowchart TD") {
			t.Errorf("unclosed diagram content lost: %q", content)
		}
	})
}

func TestCapitalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "custom", want: "Custom"},
		{input: "Custom", want: "Custom"},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		if got := capitalize(tt.input); got != tt.want {
			t.Errorf("capitalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
