package mdexport

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/alnah/go-mdexport/internal/yamlutil"
)

// Precompiled regex patterns for performance.
var (
	// Line ending normalization
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// Fenced code block delimiter (backticks or tildes)
	fencedCodeBlock = regexp.MustCompile("^(```|~~~)")

	// Obsidian callout marker: > [!kind] optional-title
	calloutPattern = regexp.MustCompile(`^(\s*(?:>\s*)+)\[!([A-Za-z][A-Za-z-]*)\][+-]?\s*(.*)$`)

	// Directory/tree listing line: word characters, path separators,
	// and box-drawing characters
	treeListingLine = regexp.MustCompile(`^[\w\-./\\ \x{2500}-\x{257F}]+$`)

	// Trailing tag line: space-separated #tokens only
	tagLinePattern = regexp.MustCompile(`^#[\w/-]+(?:[ \t]+#[\w/-]+)*$`)

	// Obsidian internal links, with and without a display label
	wikilinkLabeled = regexp.MustCompile(`\[\[([^\[\]|]+)\|([^\[\]]+)\]\]`)
	wikilinkPlain   = regexp.MustCompile(`\[\[([^\[\]|]+)\]\]`)

	// Highlight syntax ==text==
	highlightPattern = regexp.MustCompile(`==(.*?)==`)
)

// calloutLabels maps callout kinds to their pinned display labels.
var calloutLabels = map[string]string{
	"info":     "ℹ️ Info",
	"tip":      "🔥 Tip",
	"warning":  "⚠️ Warning",
	"danger":   "⚡ Danger",
	"note":     "📝 Note",
	"example":  "📋 Example",
	"question": "❓ Question",
	"success":  "✅ Success",
	"failure":  "❌ Failure",
	"bug":      "🐛 Bug",
	"quote":    "💬 Quote",
	"abstract": "📄 Abstract",
	"summary":  "📄 Summary",
	"todo":     "☑️ Todo",
}

// diagramPlaceholder formats the unique token substituted for an
// extracted diagram block. Tokens are scoped to a single parse call.
func diagramPlaceholder(n int) string {
	return fmt.Sprintf("%%%%MDEXPORT-DIAGRAM-%d%%%%", n)
}

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// splitFrontMatter removes a leading YAML front matter section delimited
// by `---` lines and extracts known metadata fields from it. A malformed
// or unparseable section is still stripped; its metadata is simply empty.
// Without a closing delimiter the content is returned untouched.
func splitFrontMatter(content string) (DocumentMeta, string) {
	var meta DocumentMeta

	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], " \t") != "---" {
		return meta, content
	}

	closing := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t") == "---" {
			closing = i
			break
		}
	}
	if closing == -1 {
		return meta, content
	}

	raw := strings.Join(lines[1:closing], "\n")
	if strings.TrimSpace(raw) != "" {
		// Tolerant parse: front matter is metadata, not structure.
		_ = yamlutil.Unmarshal([]byte(raw), &meta)
	}

	return meta, strings.Join(lines[closing+1:], "\n")
}

// normalizeCallouts rewrites Obsidian callout markers into emphasized
// label lines, preserving the blockquote prefix so the region still
// parses as a blockquote. Unknown kinds get a generic pinned label.
func normalizeCallouts(content string) string {
	return processLinesOutsideFences(content, func(line string) string {
		m := calloutPattern.FindStringSubmatch(line)
		if m == nil {
			return line
		}
		prefix, kind, title := m[1], m[2], m[3]

		label, ok := calloutLabels[strings.ToLower(kind)]
		if !ok {
			label = "📌 " + capitalize(kind)
		}

		out := prefix + "**" + label + "**"
		if title != "" {
			out += " " + title
		}
		// A bare quote line keeps the callout body a separate block.
		return out + "\n" + strings.TrimRight(prefix, " \t")
	})
}

// repairTreeFences merges an immediately-empty fenced block with a
// directory/tree listing that trails it, so the listing becomes the
// fence's content instead of loose text.
func repairTreeFences(content string) string {
	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines))

	// The closing fence of one block followed by the opening fence of
	// the next looks like an empty pair; only a genuine open-then-close
	// pair outside any fence qualifies for repair.
	inFence := false
	for i := 0; i < len(lines); i++ {
		isFence := fencedCodeBlock.MatchString(strings.TrimLeft(lines[i], " \t"))
		if inFence {
			if isFence {
				inFence = false
			}
			result = append(result, lines[i])
			continue
		}
		if !isFence {
			result = append(result, lines[i])
			continue
		}

		if i+1 >= len(lines) || strings.TrimSpace(lines[i+1]) != strings.TrimSpace(lines[i])[:3] {
			inFence = true
			result = append(result, lines[i])
			continue
		}

		// Empty fence: lines[i] opens, lines[i+1] closes.
		j := i + 2
		var listing []string
		for j < len(lines) && strings.TrimSpace(lines[j]) != "" && treeListingLine.MatchString(lines[j]) {
			listing = append(listing, lines[j])
			j++
		}
		if len(listing) == 0 {
			result = append(result, lines[i], lines[i+1])
			i++
			continue
		}

		result = append(result, lines[i])
		result = append(result, listing...)
		result = append(result, lines[i+1])
		i = j - 1
	}

	return strings.Join(result, "\n")
}

// stripTrailingTags deletes a final line consisting only of #tags when
// it is directly preceded by at least one blank line.
func stripTrailingTags(content string) string {
	trimmed := strings.TrimRight(content, " \t\n")
	idx := strings.LastIndex(trimmed, "\n")
	if idx < 1 {
		return content
	}

	last := trimmed[idx+1:]
	if !tagLinePattern.MatchString(strings.TrimSpace(last)) {
		return content
	}

	// The tag line must sit below a blank line, not directly under text.
	before := trimmed[:idx]
	if !strings.HasSuffix(before, "\n") {
		return content
	}

	return strings.TrimRight(before, "\n") + "\n"
}

// rewriteWikilinks replaces [[target]] and [[target|label]] internal
// links with plain text, using the label when present. Content inside
// code fences is left alone.
func rewriteWikilinks(content string) string {
	return processLinesOutsideFences(content, func(line string) string {
		line = wikilinkLabeled.ReplaceAllString(line, "$2")
		line = wikilinkPlain.ReplaceAllString(line, "$1")
		return line
	})
}

// stripHighlightMarks unwraps ==highlight== spans to their inner text.
// The document tree carries no highlight variant, so only the marks are
// dropped, never the text.
func stripHighlightMarks(content string) string {
	return processLinesOutsideFences(content, func(line string) string {
		return highlightPattern.ReplaceAllString(line, "$1")
	})
}

// extractDiagrams locates every mermaid-tagged fence, encodes it through
// the diagram link encoder, and substitutes a placeholder token on its
// own line. The returned map resolves placeholders to DiagramLink nodes.
// Encoding failure for a single block re-emits it as an ordinary fence.
func extractDiagrams(content string) (string, map[string]DiagramLink) {
	links := make(map[string]DiagramLink)
	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines))
	count := 0

	for i := 0; i < len(lines); i++ {
		marker, info, ok := fenceOpen(lines[i])
		if !ok {
			result = append(result, lines[i])
			continue
		}

		if !strings.EqualFold(strings.TrimSpace(info), "mermaid") {
			// Copy the whole non-diagram fence through untouched.
			result = append(result, lines[i])
			for i++; i < len(lines); i++ {
				result = append(result, lines[i])
				if strings.TrimSpace(lines[i]) == marker {
					break
				}
			}
			continue
		}

		var body []string
		closed := false
		j := i + 1
		for ; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == marker {
				closed = true
				break
			}
			body = append(body, lines[j])
		}

		source := strings.Join(body, "\n")
		link, ok := encodeDiagram(source)
		if !ok || !closed {
			// Degrade to a plain code fence rather than losing content.
			result = append(result, lines[i])
			result = append(result, body...)
			if closed {
				result = append(result, lines[j])
			}
			i = j
			continue
		}

		token := diagramPlaceholder(count)
		count++
		links[token] = link
		result = append(result, token)
		i = j
	}

	return strings.Join(result, "\n"), links
}

// encodeDiagram builds a DiagramLink from diagram source, absorbing any
// panic from the encoder into a failed result.
func encodeDiagram(source string) (link DiagramLink, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	url := EncodeDiagramURL(source, "default")
	return DiagramLink{
		Kind:   DiagramLabel(ClassifyDiagram(source)),
		Source: source,
		URL:    url,
	}, true
}

// fenceOpen reports whether line opens a fenced code block, returning
// the fence marker and the info string.
func fenceOpen(line string) (marker, info string, ok bool) {
	trimmed := strings.TrimLeft(line, " \t")
	m := fencedCodeBlock.FindString(trimmed)
	if m == "" {
		return "", "", false
	}
	return m, strings.TrimPrefix(trimmed, m), true
}

// processLinesOutsideFences applies a transform to each line that is not
// inside a fenced code block.
func processLinesOutsideFences(content string, process func(line string) string) string {
	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines))

	inCodeBlock := false
	for _, line := range lines {
		if fencedCodeBlock.MatchString(strings.TrimLeft(line, " \t")) {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
			continue
		}
		if inCodeBlock {
			result = append(result, line)
			continue
		}
		result = append(result, process(line))
	}

	return strings.Join(result, "\n")
}

// capitalize upper-cases the first rune of s.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
