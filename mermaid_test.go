package mdexport

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"
	"testing"
)

func TestClassifyDiagram(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "flowchart",
			source: "flowchart TD\n  A --> B",
			want:   "flowchart",
		},
		{
			name:   "graph alias",
			source: "graph LR\n  A --> B",
			want:   "graph",
		},
		{
			name:   "sequence diagram",
			source: "sequenceDiagram\n  Alice->>Bob: Hi",
			want:   "sequencediagram",
		},
		{
			name:   "state diagram v2",
			source: "stateDiagram-v2\n  [*] --> Idle",
			want:   "statediagram-v2",
		},
		{
			name:   "leading blank lines skipped",
			source: "\n\n  gantt\n  title Plan",
			want:   "gantt",
		},
		{
			name:   "empty source",
			source: "",
			want:   "diagram",
		},
		{
			name:   "whitespace only",
			source: "   \n\t\n",
			want:   "diagram",
		},
		{
			name:   "no identifier",
			source: "-> not an identifier",
			want:   "diagram",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ClassifyDiagram(tt.source); got != tt.want {
				t.Errorf("ClassifyDiagram(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestDiagramLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind string
		want string
	}{
		{"flowchart", "Flowchart"},
		{"graph", "Flowchart"},
		{"sequencediagram", "Sequence Diagram"},
		{"classdiagram", "Class Diagram"},
		{"statediagram", "State Diagram"},
		{"statediagram-v2", "State Diagram"},
		{"erdiagram", "ER Diagram"},
		{"gantt", "Gantt Chart"},
		{"pie", "Pie Chart"},
		{"journey", "User Journey"},
		{"gitgraph", "Git Graph"},
		{"mindmap", "Mindmap"},
		{"timeline", "Timeline"},
		{"quadrantchart", "Quadrant Chart"},
		{"requirementdiagram", "Requirement Diagram"},
		{"diagram", "Diagram"},
		{"somethingelse", "Diagram"},
		{"", "Diagram"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			t.Parallel()
			if got := DiagramLabel(tt.kind); got != tt.want {
				t.Errorf("DiagramLabel(%q) = %q, want %q", tt.kind, got, tt.want)
			}
		})
	}
}

// The classify/label pipeline must be total: any input yields a non-empty
// label without panicking.
func TestDiagramLabelTotal(t *testing.T) {
	t.Parallel()

	inputs := []string{"", " ", "\n", "!!!", "flowchart TD", strings.Repeat("x", 10000)}
	for _, in := range inputs {
		if got := DiagramLabel(ClassifyDiagram(in)); got == "" {
			t.Errorf("DiagramLabel(ClassifyDiagram(%q)) returned empty string", in)
		}
	}
}

func TestEncodeDiagramURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		theme  string
	}{
		{name: "simple flowchart", source: "flowchart TD\n  A --> B", theme: "default"},
		{name: "empty theme defaults", source: "pie\n  \"a\": 1", theme: ""},
		{name: "empty source", source: "", theme: "default"},
		{name: "malformed source", source: "not a diagram at all \x00", theme: "dark"},
		{name: "unicode", source: "graph LR\n  A[héllo] --> B[wörld]", theme: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			url := EncodeDiagramURL(tt.source, tt.theme)
			if !strings.HasPrefix(url, MermaidBaseURL) {
				t.Fatalf("EncodeDiagramURL() = %q, want prefix %q", url, MermaidBaseURL)
			}

			// Decode the fragment and verify the round trip.
			fragment, ok := strings.CutPrefix(url, MermaidBaseURL+"#pako:")
			if !ok {
				t.Fatalf("EncodeDiagramURL() = %q, missing #pako: fragment", url)
			}

			compressed, err := base64.RawURLEncoding.DecodeString(fragment)
			if err != nil {
				t.Fatalf("base64 decode: %v", err)
			}

			zr, err := zlib.NewReader(bytes.NewReader(compressed))
			if err != nil {
				t.Fatalf("zlib reader: %v", err)
			}
			raw, err := io.ReadAll(zr)
			if err != nil {
				t.Fatalf("zlib read: %v", err)
			}

			var payload struct {
				Code    string `json:"code"`
				Mermaid struct {
					Theme string `json:"theme"`
				} `json:"mermaid"`
			}
			if err := json.Unmarshal(raw, &payload); err != nil {
				t.Fatalf("json unmarshal: %v", err)
			}

			if payload.Code != tt.source {
				t.Errorf("round-tripped code = %q, want %q", payload.Code, tt.source)
			}
			wantTheme := tt.theme
			if wantTheme == "" {
				wantTheme = "default"
			}
			if payload.Mermaid.Theme != wantTheme {
				t.Errorf("round-tripped theme = %q, want %q", payload.Mermaid.Theme, wantTheme)
			}
		})
	}
}
