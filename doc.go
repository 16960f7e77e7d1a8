// Package mdexport converts Obsidian-flavored Markdown into Word
// documents, styled HTML pages, and clipboard-ready HTML fragments.
//
// # Quick Start
//
// Create a service and export:
//
//	svc, err := mdexport.NewService(mdexport.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := svc.Export(ctx, mdexport.Input{
//	    Markdown: "# Hello\n\nWorld",
//	    Filename: "hello.md",
//	    Format:   mdexport.FormatDocx,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(result.Filename, result.Bytes, 0644)
//
// # Conversion Pipeline
//
// Every export runs the same two stages:
//
//  1. Parsing: text-level preprocessing (front matter, Obsidian
//     callouts, trailing tag lines, wikilinks, mermaid extraction)
//     followed by Goldmark tokenization into a format-neutral document
//     tree.
//  2. Rendering: the tree is replayed through one of three backends:
//     an OOXML word-processing package, a standalone styled HTML page,
//     or a bare inline-styled HTML fragment for rich paste.
//
// Mermaid code fences are not rasterized. Each one becomes a hyperlink
// to the mermaid.live editor carrying the diagram source as a
// compressed pako fragment, so readers can open and edit the diagram.
//
// # Dialect Support
//
// Beyond CommonMark and GFM (tables, strikethrough, task lists), the
// parser understands YAML front matter (title and author feed document
// metadata), Obsidian callouts ("> [!warning] ..."), [[wikilinks]],
// ==highlights==, and trailing #tag lines.
//
// # Failure Semantics
//
// Parsing never fails: malformed constructs degrade to plain content
// and are reported as diagnostics on the Result. Only whole-operation
// problems (invalid configuration, unrenderable format, I/O) surface
// as errors.
package mdexport
