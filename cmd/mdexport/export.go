package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	mdexport "github.com/alnah/go-mdexport"
	"github.com/alnah/go-mdexport/internal/clipboard"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput          = errors.New("usage: mdexport [flags] <input.md>")
	ErrReadMarkdown     = errors.New("failed to read markdown file")
	ErrWriteOutput      = errors.New("failed to write output file")
	ErrInvalidExtension = errors.New("file must have .md or .markdown extension")
)

// filePermissions is the mode for written output files.
const filePermissions = 0o644 // rw-r--r--

// run loads configuration, exports the input file, and delivers the
// result to its sink (file or clipboard).
func run(flags *cliFlags, args []string) error {
	if len(args) < 1 {
		return ErrNoInput
	}
	inputPath := args[0]

	if err := validateMarkdownExtension(inputPath); err != nil {
		return err
	}

	cfg, err := loadConfig(flags.config)
	if err != nil {
		return err
	}
	cfg = applyFlagOverrides(cfg, flags)

	var opts []mdexport.Option
	if flags.verbose {
		opts = append(opts, mdexport.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))))
	}

	svc, err := mdexport.NewService(cfg, opts...)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(inputPath) // #nosec G304 -- input path is user-provided
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadMarkdown, err)
	}

	result, err := svc.Export(context.Background(), mdexport.Input{
		Markdown: string(content),
		Filename: filepath.Base(inputPath),
	})
	if err != nil {
		return err
	}

	for _, d := range result.Diagnostics {
		fmt.Fprintln(os.Stderr, "warning:", d)
	}

	return deliver(result, flags, cfg)
}

// deliver hands the rendered bytes to the clipboard or the filesystem.
func deliver(result *mdexport.Result, flags *cliFlags, cfg mdexport.Config) error {
	if result.Filename == "" {
		if err := clipboard.WriteHTML(string(result.Bytes)); err != nil {
			return err
		}
		fmt.Println("Copied to clipboard")
		return nil
	}

	outputPath := flags.output
	if outputPath == "" {
		outputPath = result.Filename
	}

	if err := os.WriteFile(outputPath, result.Bytes, filePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	fmt.Printf("Created %s\n", outputPath)

	if cfg.OpenAfterExport {
		openFile(outputPath)
	}
	return nil
}

// validateMarkdownExtension checks that the file has a .md or .markdown extension.
func validateMarkdownExtension(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".md" && ext != ".markdown" {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, ext)
	}
	return nil
}

// openFile opens path with the platform handler. Best effort: failure
// is reported but never fails the export.
func openFile(path string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "could not open %s: %v\n", path, err)
	}
}
