package main

import (
	flag "github.com/spf13/pflag"
)

// Exit codes.
const (
	exitUsage   = 2
	exitFailure = 1
)

// cliFlags holds all parsed command-line flags.
type cliFlags struct {
	config  string
	format  string
	output  string
	verbose bool
	version bool

	// Config overrides; the *Set booleans record whether the user
	// passed the flag at all, so unset flags never clobber file values.
	mermaidLinkText  string
	includeType      bool
	includeTypeSet   bool
	codeFont         string
	codeBackground   string
	languageLabel    bool
	languageLabelSet bool
	imageHandling    string
	keepWikilinks    bool
	keepWikilinksSet bool
	open             bool
	openSet          bool
}

// parseFlags parses args into flags and positional arguments.
func parseFlags(args []string) (*cliFlags, []string, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("mdexport", flag.ContinueOnError)

	fs.StringVarP(&f.config, "config", "c", "", "config file path or name")
	fs.StringVarP(&f.format, "format", "f", "", "output format: docx, html, clipboard")
	fs.StringVarP(&f.output, "output", "o", "", "output file path (file formats only)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "verbose output")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	fs.StringVar(&f.mermaidLinkText, "mermaid-link-text", "", "visible text of diagram links")
	fs.BoolVar(&f.includeType, "include-mermaid-type", false, "append the diagram kind to link text")
	fs.StringVar(&f.codeFont, "code-font", "", "monospace font for code blocks")
	fs.StringVar(&f.codeBackground, "code-background", "", "hex background color for code blocks")
	fs.BoolVar(&f.languageLabel, "language-label", false, "emit a language label above code blocks")
	fs.StringVar(&f.imageHandling, "image-handling", "", "image policy: embed, link, skip")
	fs.BoolVar(&f.keepWikilinks, "keep-wikilinks", false, "leave [[wikilinks]] untouched")
	fs.BoolVar(&f.open, "open", false, "open the written file after export")

	if err := fs.Parse(args[1:]); err != nil {
		return nil, nil, err
	}

	f.includeTypeSet = fs.Changed("include-mermaid-type")
	f.languageLabelSet = fs.Changed("language-label")
	f.keepWikilinksSet = fs.Changed("keep-wikilinks")
	f.openSet = fs.Changed("open")

	return f, fs.Args(), nil
}
