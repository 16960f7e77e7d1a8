package mdexport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Service orchestrates the markdown-to-document export pipeline:
// parse into the document tree, render through the selected backend.
// A Service is immutable after construction and safe for concurrent use;
// every Export call works on a freshly built tree.
type Service struct {
	cfg    Config
	parser *Parser
	logger *slog.Logger
}

// NewService creates a Service for the given configuration.
// Returns an error if the configuration is invalid.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		cfg:    cfg,
		logger: discardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.parser = newParser(cfg, s.logger)
	return s, nil
}

// Export runs the full pipeline for one input and returns the rendered
// bytes together with the suggested filename, MIME type, and any parse
// diagnostics. The context is checked between pipeline stages.
func (s *Service) Export(ctx context.Context, input Input) (*Result, error) {
	if strings.TrimSpace(input.Markdown) == "" {
		return nil, ErrEmptyMarkdown
	}

	format := input.Format
	if format == "" {
		format = s.cfg.DefaultFormat
	}

	r, err := newRenderer(format, s.cfg, s.logger)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, diags := s.parser.Parse(input.Markdown)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := r.render(doc)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", format, err)
	}

	return &Result{
		Bytes:       out,
		Filename:    outputFilename(input.Filename, format),
		MIMEType:    formatMIME(format),
		Diagnostics: diags,
	}, nil
}
