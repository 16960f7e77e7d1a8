package mdexport

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown = errors.New("markdown content cannot be empty")
	ErrRender        = errors.New("rendering failed")

	// Config validation errors.
	ErrInvalidFormat        = errors.New("invalid export format")
	ErrInvalidImageHandling = errors.New("invalid image handling mode")
	ErrInvalidColor         = errors.New("invalid hex color")
	ErrEmptyLinkText        = errors.New("mermaid link text cannot be empty")
	ErrEmptyCodeFont        = errors.New("code block font cannot be empty")
)
