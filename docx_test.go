package mdexport

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"
)

// readDocxPart opens the zip package and returns one part's content.
func readDocxPart(t *testing.T, data []byte, name string) string {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("opening package: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening part %s: %v", name, err)
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("reading part %s: %v", name, err)
		}
		return string(content)
	}
	t.Fatalf("part %s not found in package", name)
	return ""
}

func renderDocx(t *testing.T, cfg Config, doc *Document) []byte {
	t.Helper()

	r := &docxRenderer{cfg: cfg, logger: discardLogger()}
	out, err := r.render(doc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return out
}

func TestDocxPackageParts(t *testing.T) {
	t.Parallel()

	doc := &Document{Blocks: []Block{
		Paragraph{Content: InlineSeq{Text{Text: "hello"}}},
	}}
	out := renderDocx(t, DefaultConfig(), doc)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("opening package: %v", err)
	}

	got := make(map[string]bool)
	for _, f := range zr.File {
		got[f.Name] = true
	}
	for _, want := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"word/document.xml",
		"word/styles.xml",
		"word/numbering.xml",
		"word/_rels/document.xml.rels",
		"docProps/core.xml",
	} {
		if !got[want] {
			t.Errorf("package missing part %s", want)
		}
	}
}

func TestDocxHeadingStyles(t *testing.T) {
	t.Parallel()

	doc := &Document{Blocks: []Block{
		Heading{Level: 1, Content: InlineSeq{Text{Text: "Top"}}},
		Heading{Level: 3, Content: InlineSeq{Text{Text: "Sub"}}},
	}}
	out := renderDocx(t, DefaultConfig(), doc)
	body := readDocxPart(t, out, "word/document.xml")

	for _, want := range []string{
		`<w:pStyle w:val="Heading1"/>`,
		`<w:pStyle w:val="Heading3"/>`,
		">Top<",
		">Sub<",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("document.xml missing %q", want)
		}
	}
}

func TestDocxInlineFormatting(t *testing.T) {
	t.Parallel()

	doc := &Document{Blocks: []Block{
		Paragraph{Content: InlineSeq{
			Bold{Content: InlineSeq{Italic{Content: InlineSeq{Text{Text: "both"}}}}},
			Strikethrough{Content: InlineSeq{Text{Text: "gone"}}},
			InlineCode{Text: "x := 1"},
		}},
	}}
	out := renderDocx(t, DefaultConfig(), doc)
	body := readDocxPart(t, out, "word/document.xml")

	// The nested run carries both flags on a single <w:r>.
	if !strings.Contains(body, `<w:b/><w:i/>`) {
		t.Error("bold+italic run missing combined flags")
	}
	if !strings.Contains(body, `<w:strike/>`) {
		t.Error("missing strikethrough run property")
	}
	if !strings.Contains(body, `w:ascii="Consolas"`) {
		t.Error("inline code run missing monospace font")
	}
	if !strings.Contains(body, `>x := 1<`) {
		t.Error("inline code text lost")
	}
}

func TestDocxHyperlinkRelationships(t *testing.T) {
	t.Parallel()

	doc := &Document{Blocks: []Block{
		Paragraph{Content: InlineSeq{
			Link{Content: InlineSeq{Text{Text: "site"}}, URL: "https://example.com/a"},
		}},
		DiagramLink{Kind: "Flowchart", URL: "https://mermaid.live/edit#pako:abc"},
	}}
	out := renderDocx(t, DefaultConfig(), doc)

	body := readDocxPart(t, out, "word/document.xml")
	for _, want := range []string{
		`<w:hyperlink r:id="rId3">`,
		`<w:hyperlink r:id="rId4">`,
		`<w:rStyle w:val="Hyperlink"/>`,
		"View diagram (Flowchart)",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("document.xml missing %q", want)
		}
	}

	rels := readDocxPart(t, out, "word/_rels/document.xml.rels")
	for _, want := range []string{
		`Id="rId3"`,
		`Target="https://example.com/a"`,
		`Target="https://mermaid.live/edit#pako:abc"`,
		`TargetMode="External"`,
	} {
		if !strings.Contains(rels, want) {
			t.Errorf("document.xml.rels missing %q", want)
		}
	}
}

func TestDocxCodeBlockLines(t *testing.T) {
	t.Parallel()

	doc := &Document{Blocks: []Block{
		Code{Language: "go", Content: "a := 1\n\nb := 2"},
	}}
	out := renderDocx(t, DefaultConfig(), doc)
	body := readDocxPart(t, out, "word/document.xml")

	// One shaded paragraph per source line, blank line included.
	if got := strings.Count(body, `w:fill="F5F5F5"`); got < 3 {
		t.Errorf("got %d shaded fragments, want at least 3", got)
	}
	if !strings.Contains(body, ">go<") {
		t.Error("missing language label")
	}
	if !strings.Contains(body, ">a := 1<") || !strings.Contains(body, ">b := 2<") {
		t.Error("code lines lost")
	}
}

func TestDocxCodeBlockNoLabel(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.IncludeLanguageLabel = false
	doc := &Document{Blocks: []Block{
		Code{Language: "go", Content: "a := 1"},
	}}
	out := renderDocx(t, cfg, doc)
	body := readDocxPart(t, out, "word/document.xml")

	if strings.Contains(body, ">go<") {
		t.Error("language label emitted despite being disabled")
	}
}

func TestDocxLists(t *testing.T) {
	t.Parallel()

	nested := List{Items: []ListItem{{Content: InlineSeq{Text{Text: "inner"}}}}}
	doc := &Document{Blocks: []Block{
		List{Items: []ListItem{{Content: InlineSeq{Text{Text: "outer"}}, Children: &nested}}},
		List{Ordered: true, Items: []ListItem{{Content: InlineSeq{Text{Text: "first"}}}}},
	}}
	out := renderDocx(t, DefaultConfig(), doc)
	body := readDocxPart(t, out, "word/document.xml")

	for _, want := range []string{
		`<w:ilvl w:val="0"/><w:numId w:val="1"/>`,
		`<w:ilvl w:val="1"/><w:numId w:val="1"/>`,
		`<w:ilvl w:val="0"/><w:numId w:val="2"/>`,
		`<w:pStyle w:val="ListParagraph"/>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("document.xml missing %q", want)
		}
	}
}

func TestDocxTable(t *testing.T) {
	t.Parallel()

	doc := &Document{Blocks: []Block{
		Table{
			Headers: []InlineSeq{{Text{Text: "A"}}, {Text{Text: "B"}}},
			Rows: [][]InlineSeq{
				{{Text{Text: "1"}}, {Text{Text: "2"}}},
			},
		},
	}}
	out := renderDocx(t, DefaultConfig(), doc)
	body := readDocxPart(t, out, "word/document.xml")

	if got := strings.Count(body, "<w:tc>"); got != 4 {
		t.Errorf("got %d table cells, want 4", got)
	}
	if !strings.Contains(body, `w:fill="EAEEF2"`) {
		t.Error("header row missing shading")
	}
	if got := strings.Count(body, "<w:tr>"); got != 2 {
		t.Errorf("got %d table rows, want 2", got)
	}
}

func TestDocxBlockquote(t *testing.T) {
	t.Parallel()

	doc := &Document{Blocks: []Block{
		Blockquote{Blocks: []Block{
			Paragraph{Content: InlineSeq{Text{Text: "quoted"}}},
			Table{Headers: []InlineSeq{{Text{Text: "H"}}}, Rows: nil},
		}},
	}}
	out := renderDocx(t, DefaultConfig(), doc)
	body := readDocxPart(t, out, "word/document.xml")

	if !strings.Contains(body, `<w:pBdr><w:left `) {
		t.Error("quoted paragraph missing left border")
	}
	if !strings.Contains(body, `<w:ind w:left="720"/>`) {
		t.Error("quoted paragraph missing indentation")
	}
	if !strings.Contains(body, "[quoted table]") {
		t.Error("table inside blockquote missing textual marker")
	}
}

func TestDocxImagePolicies(t *testing.T) {
	t.Parallel()

	img := Image{Alt: "chart", URL: "https://example.com/chart.png"}

	tests := []struct {
		name         string
		handling     string
		wantContains []string
		wantNot      []string
	}{
		{
			name:     "skip drops the image",
			handling: ImageSkip,
			wantNot:  []string{"chart.png", "chart"},
		},
		{
			name:         "link emits a hyperlink",
			handling:     ImageLink,
			wantContains: []string{"<w:hyperlink", ">chart<"},
		},
		{
			name:         "embed notes the reference",
			handling:     ImageEmbed,
			wantContains: []string{"[image: chart"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			cfg.ImageHandling = tt.handling
			out := renderDocx(t, cfg, &Document{Blocks: []Block{img}})
			body := readDocxPart(t, out, "word/document.xml")

			for _, want := range tt.wantContains {
				if !strings.Contains(body, want) {
					t.Errorf("document.xml missing %q", want)
				}
			}
			for _, not := range tt.wantNot {
				if strings.Contains(body, not) {
					t.Errorf("document.xml unexpectedly contains %q", not)
				}
			}
		})
	}
}

func TestDocxCoreProperties(t *testing.T) {
	t.Parallel()

	doc := &Document{
		Meta:   DocumentMeta{Title: "My Notes", Author: "Sam"},
		Blocks: []Block{Paragraph{Content: InlineSeq{Text{Text: "x"}}}},
	}
	out := renderDocx(t, DefaultConfig(), doc)
	core := readDocxPart(t, out, "docProps/core.xml")

	if !strings.Contains(core, "<dc:title>My Notes</dc:title>") {
		t.Error("core.xml missing title")
	}
	if !strings.Contains(core, "<dc:creator>Sam</dc:creator>") {
		t.Error("core.xml missing creator")
	}
}

func TestDocxDeterministic(t *testing.T) {
	t.Parallel()

	doc := &Document{Blocks: []Block{
		Heading{Level: 1, Content: InlineSeq{Text{Text: "Title"}}},
		Paragraph{Content: InlineSeq{
			Link{Content: InlineSeq{Text{Text: "x"}}, URL: "https://example.com"},
		}},
	}}

	first := renderDocx(t, DefaultConfig(), doc)
	second := renderDocx(t, DefaultConfig(), doc)
	if !bytes.Equal(first, second) {
		t.Error("rendering the same document twice produced different bytes")
	}
}

func TestHexFill(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "#F5F5F5", want: "F5F5F5"},
		{input: "#abc", want: "AABBCC"},
		{input: "#ffffff", want: "FFFFFF"},
	}

	for _, tt := range tests {
		if got := hexFill(tt.input); got != tt.want {
			t.Errorf("hexFill(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
