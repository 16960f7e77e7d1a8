package mdexport

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Export format constants.
const (
	FormatDocx      = "docx"
	FormatHTML      = "html"
	FormatClipboard = "clipboard"
)

// Image handling constants.
const (
	ImageEmbed = "embed"
	ImageLink  = "link"
	ImageSkip  = "skip"
)

// hexColorPattern matches 3- or 6-digit hex colors with a leading #.
var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Config holds all export options. Every field is always set at the point
// of use inside the library; merging partial user settings with defaults
// is the caller's concern.
type Config struct {
	DefaultFormat        string `yaml:"defaultFormat"`        // "docx", "html", "clipboard"
	MermaidLinkText      string `yaml:"mermaidLinkText"`      // visible text of diagram links
	IncludeMermaidType   bool   `yaml:"includeMermaidType"`   // append " (Flowchart)" etc. to link text
	CodeBlockFont        string `yaml:"codeBlockFont"`        // monospace font family
	CodeBlockBackground  string `yaml:"codeBlockBackground"`  // hex color, e.g. "#F5F5F5"
	IncludeLanguageLabel bool   `yaml:"includeLanguageLabel"` // emit language label above code blocks
	ImageHandling        string `yaml:"imageHandling"`        // "embed", "link", "skip"
	RemoveObsidianLinks  bool   `yaml:"removeObsidianLinks"`  // rewrite [[wikilinks]] to plain text
	OpenAfterExport      bool   `yaml:"openAfterExport"`      // CLI only: open the written file
}

// DefaultConfig returns the configuration used when the caller supplies
// nothing.
func DefaultConfig() Config {
	return Config{
		DefaultFormat:        FormatDocx,
		MermaidLinkText:      "View diagram",
		IncludeMermaidType:   true,
		CodeBlockFont:        "Consolas",
		CodeBlockBackground:  "#F5F5F5",
		IncludeLanguageLabel: true,
		ImageHandling:        ImageLink,
		RemoveObsidianLinks:  true,
		OpenAfterExport:      false,
	}
}

// Validate checks that all fields hold recognized values.
func (c Config) Validate() error {
	if !isValidFormat(c.DefaultFormat) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.DefaultFormat)
	}
	if !isValidImageHandling(c.ImageHandling) {
		return fmt.Errorf("%w: %q", ErrInvalidImageHandling, c.ImageHandling)
	}
	if !hexColorPattern.MatchString(c.CodeBlockBackground) {
		return fmt.Errorf("%w: %q", ErrInvalidColor, c.CodeBlockBackground)
	}
	if strings.TrimSpace(c.MermaidLinkText) == "" {
		return ErrEmptyLinkText
	}
	if strings.TrimSpace(c.CodeBlockFont) == "" {
		return ErrEmptyCodeFont
	}
	return nil
}

// isValidFormat checks if format is a known export format (case-insensitive).
func isValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case FormatDocx, FormatHTML, FormatClipboard:
		return true
	}
	return false
}

// isValidImageHandling checks if mode is a known image policy (case-insensitive).
func isValidImageHandling(mode string) bool {
	switch strings.ToLower(mode) {
	case ImageEmbed, ImageLink, ImageSkip:
		return true
	}
	return false
}

// Input contains export parameters for a single call.
type Input struct {
	Markdown string // Markdown content (required)
	Filename string // Base name for file-producing formats (optional)
	Format   string // Target format (optional, empty = Config.DefaultFormat)
}

// Result holds the outcome of a single export.
type Result struct {
	Bytes       []byte   // rendered output
	Filename    string   // suggested output filename ("" for clipboard)
	MIMEType    string   // MIME type of Bytes
	Diagnostics []string // non-fatal parse/render warnings
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for parse and render diagnostics.
// By default diagnostics are collected on the Result but not logged.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("mdexport: WithLogger logger must not be nil")
	}
	return func(s *Service) {
		s.logger = l
	}
}
