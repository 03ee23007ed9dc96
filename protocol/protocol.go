// Package protocol maps extraction-eligible code blocks to tangle
// artifacts. Two protocols exist: Default groups blocks by declared
// language per document, Located (AImM) groups them by an explicit
// location identifier across documents. Future protocols are new
// variants with their own resolver function, never modifications of
// the existing ones.
package protocol

import (
	"fmt"
	"strings"
)

// Protocol selects the block-to-artifact mapping strategy.
type Protocol int

const (
	// Default groups blocks by declared language within each document.
	Default Protocol = iota
	// Located groups blocks by their location attribute across
	// documents, enabling targeted regeneration of one code region.
	Located
)

// String returns the protocol's CLI name.
func (p Protocol) String() string {
	switch p {
	case Located:
		return "aimm"
	default:
		return "default"
	}
}

// Parse resolves a CLI protocol name. "aimm" and "located" select the
// location-aware protocol; "default" or "" select the language-grouped
// one.
func Parse(name string) (Protocol, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return Default, nil
	case "aimm", "located":
		return Located, nil
	default:
		return Default, fmt.Errorf("unknown protocol %q (want \"default\" or \"aimm\")", name)
	}
}

// extensions maps declared language tags to output file extensions.
// Blocks with languages outside this table are not tangled.
var extensions = map[string]string{
	"python":     "py",
	"rust":       "rs",
	"go":         "go",
	"c":          "c",
	"h":          "h",
	"cpp":        "cpp",
	"javascript": "js",
	"typescript": "ts",
	"bash":       "sh",
	"sh":         "sh",
	"sql":        "sql",
	"yaml":       "yaml",
	"json":       "json",
	"toml":       "toml",
}

// ExtensionFor returns the output extension for a language tag.
func ExtensionFor(language string) (string, bool) {
	ext, ok := extensions[strings.ToLower(language)]
	return ext, ok
}

// LanguageForExtension is the inverse mapping, used when converting
// standalone source files into literate documents.
func LanguageForExtension(ext string) (string, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch ext {
	case "py":
		return "python", true
	case "rs":
		return "rust", true
	case "go":
		return "go", true
	case "c", "h":
		return "c", true
	case "cpp", "cc", "cxx", "hpp":
		return "cpp", true
	case "js":
		return "javascript", true
	case "ts":
		return "typescript", true
	case "sh":
		return "bash", true
	case "sql", "yaml", "json", "toml":
		return ext, true
	}
	return "", false
}
