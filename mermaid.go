package mdexport

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strings"
)

// MermaidBaseURL is the edit page of the external diagram service.
// The full link wire format is MermaidBaseURL + "#pako:" + base64 of the
// zlib-compressed JSON payload {"code": ..., "mermaid": {"theme": ...}}.
const MermaidBaseURL = "https://mermaid.live/edit"

// diagramIdentPattern extracts the leading identifier of a diagram's
// first line: letters, digits, and hyphens.
var diagramIdentPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*`)

// diagramLabels maps lowercased diagram identifiers to display labels.
var diagramLabels = map[string]string{
	"flowchart":          "Flowchart",
	"graph":              "Flowchart",
	"sequencediagram":    "Sequence Diagram",
	"classdiagram":       "Class Diagram",
	"statediagram":       "State Diagram",
	"statediagram-v2":    "State Diagram",
	"erdiagram":          "ER Diagram",
	"gantt":              "Gantt Chart",
	"pie":                "Pie Chart",
	"journey":            "User Journey",
	"gitgraph":           "Git Graph",
	"mindmap":            "Mindmap",
	"timeline":           "Timeline",
	"quadrantchart":      "Quadrant Chart",
	"requirementdiagram": "Requirement Diagram",
	"c4context":          "C4 Diagram",
	"c4container":        "C4 Diagram",
	"c4component":        "C4 Diagram",
	"c4dynamic":          "C4 Diagram",
	"sankey-beta":        "Sankey Diagram",
	"xychart-beta":       "XY Chart",
	"block-beta":         "Block Diagram",
	"packet-beta":        "Packet Diagram",
}

// mermaidPayload is the JSON object the diagram service decodes from the
// URL fragment. Field order and names are part of the wire contract.
type mermaidPayload struct {
	Code    string `json:"code"`
	Mermaid struct {
		Theme string `json:"theme"`
	} `json:"mermaid"`
}

// ClassifyDiagram extracts the diagram kind identifier from source text:
// the leading identifier token of the first non-blank line, lowercased.
// Returns "diagram" for empty or unclassifiable input.
func ClassifyDiagram(source string) string {
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		ident := diagramIdentPattern.FindString(trimmed)
		if ident == "" {
			return "diagram"
		}
		return strings.ToLower(ident)
	}
	return "diagram"
}

// DiagramLabel maps a kind identifier to a human-readable display label.
// Unknown identifiers map to "Diagram". Never returns an empty string.
func DiagramLabel(kind string) string {
	if label, ok := diagramLabels[strings.ToLower(kind)]; ok {
		return label
	}
	return "Diagram"
}

// EncodeDiagramURL builds a shareable edit-link for the given diagram
// source. The payload is serialized to JSON, compressed with zlib (the
// deflate wrapper pako produces), and base64-encoded with the URL-safe
// alphabet. On any internal failure the bare base URL is returned; this
// function never fails.
func EncodeDiagramURL(source, theme string) string {
	if theme == "" {
		theme = "default"
	}

	var payload mermaidPayload
	payload.Code = source
	payload.Mermaid.Theme = theme

	data, err := json.Marshal(payload)
	if err != nil {
		return MermaidBaseURL
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(data); err != nil {
		return MermaidBaseURL
	}
	if err := zw.Close(); err != nil {
		return MermaidBaseURL
	}

	encoded := base64.RawURLEncoding.EncodeToString(compressed.Bytes())
	return MermaidBaseURL + "#pako:" + encoded
}
