// Package base provides common functionality and utilities for format
// handlers. It holds the detection helpers shared by the per-format
// packages and the registry the CLI uses to validate inputs before
// parsing them.
package base

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/RefTax/internal/archive"
)

// DetectResult reports whether a file matched a format and why.
type DetectResult struct {
	Detected bool   `json:"detected"`
	Format   string `json:"format,omitempty"`
	Reason   string `json:"reason"`
}

// DetectConfig contains configuration for format detection.
type DetectConfig struct {
	// Extensions lists the format's file extensions (e.g. ".tsv", ".nwk").
	// Compression suffixes are stripped before matching.
	Extensions []string
	// ContentMarkers are strings that must all appear in the content.
	ContentMarkers []string
	// FormatName is the name reported in DetectResult.
	FormatName string
	// CheckContent forces the content to be read even without markers,
	// so CustomValidator gets to see it.
	CheckContent bool
	// CustomValidator inspects the decompressed content when extension
	// and markers were inconclusive.
	CustomValidator func(path string, data []byte) (bool, string, error)
}

func (c DetectConfig) matched(reason string) *DetectResult {
	return &DetectResult{Detected: true, Format: c.FormatName, Reason: reason}
}

func notMatched(reason string) *DetectResult {
	return &DetectResult{Reason: reason}
}

// hasExtension reports whether the real extension of path, behind any
// compression suffix, is one of the format's extensions.
func (c DetectConfig) hasExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(archive.BaseName(path)))
	for _, valid := range c.Extensions {
		if ext == strings.ToLower(valid) {
			return true
		}
	}
	return false
}

func containsAll(content string, markers []string) bool {
	for _, marker := range markers {
		if !strings.Contains(content, marker) {
			return false
		}
	}
	return true
}

// DetectFile decides whether the file at path belongs to the format
// described by config. Content markers and the custom validator can
// claim a file regardless of its extension; the extension alone is
// enough when they are absent or inconclusive.
func DetectFile(path string, config DetectConfig) (*DetectResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return notMatched(fmt.Sprintf("cannot stat: %v", err)), nil
	}
	if info.IsDir() {
		return notMatched("path is a directory, not a file"), nil
	}

	if config.CheckContent || len(config.ContentMarkers) > 0 {
		data, err := archive.ReadAll(path)
		if err != nil {
			return notMatched(fmt.Sprintf("cannot read: %v", err)), nil
		}

		if len(config.ContentMarkers) > 0 && containsAll(string(data), config.ContentMarkers) {
			return config.matched(fmt.Sprintf("%s markers detected", config.FormatName)), nil
		}

		if config.CustomValidator != nil {
			detected, reason, err := config.CustomValidator(path, data)
			if err != nil {
				return notMatched(fmt.Sprintf("validation error: %v", err)), nil
			}
			if detected {
				return config.matched(reason), nil
			}
		}
	}

	if config.hasExtension(path) {
		return config.matched(fmt.Sprintf("%s file extension detected", config.FormatName)), nil
	}
	return notMatched(fmt.Sprintf("not a %s file", config.FormatName)), nil
}

// FirstLine returns the first non-blank line of data without its line
// ending. Detection validators use it to sniff the leading record.
func FirstLine(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}
