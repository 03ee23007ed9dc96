package weave

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/loomkit/loom/protocol"
)

// placeholderPattern matches @{file} and @{file:identifier} references
// inside prose.
var placeholderPattern = regexp.MustCompile(`@\{([^}:\s]+)(?::([A-Za-z_][A-Za-z0-9_]*))?\}`)

// Inliner expands placeholder references into fenced code blocks. File
// paths resolve relative to the document's directory.
type Inliner struct {
	Logger *slog.Logger
}

// Expand replaces every placeholder in text with a fenced block holding
// the referenced file, or the single named definition when an
// identifier is given. Unresolvable references are left verbatim and
// returned as warnings.
func (in *Inliner) Expand(ctx context.Context, text, baseDir string) (string, []string) {
	logger := in.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var warnings []string

	out := placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := placeholderPattern.FindStringSubmatch(match)
		file, ident := groups[1], groups[2]

		path := filepath.Join(baseDir, filepath.FromSlash(file))
		source, err := os.ReadFile(path)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("placeholder %s: %v", match, err))
			logger.Warn("placeholder left verbatim", "reference", match, "error", err)
			return match
		}

		ext := strings.TrimPrefix(filepath.Ext(file), ".")
		language, _ := protocol.LanguageForExtension(ext)

		body := string(source)
		if ident != "" {
			def, err := ExtractDefinition(ctx, language, source, ident)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("placeholder %s: %v", match, err))
				logger.Warn("placeholder left verbatim", "reference", match, "error", err)
				return match
			}
			body = def
		}
		return fencedBlock(language, body)
	})
	return out, warnings
}

// fencedBlock wraps body in an extraction-eligible fence. Bodies
// containing backtick runs get a fence long enough not to collide.
func fencedBlock(language, body string) string {
	fence := "```"
	for strings.Contains(body, fence) {
		fence += "`"
	}
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	if language == "" {
		return fence + "\n" + body + fence
	}
	return fmt.Sprintf("%s{.%s .%s}\n%s%s", fence, language, "tangle", body, fence)
}

// definitionNodes maps a language to the AST node kinds that introduce
// a named top-level definition.
var definitionNodes = map[string][]string{
	"python": {"function_definition", "class_definition"},
	"rust":   {"function_item", "struct_item", "enum_item", "trait_item"},
}

// ExtractDefinition returns the source text of the definition called
// name in a python or rust file, using tree-sitter to locate it.
func ExtractDefinition(ctx context.Context, language string, source []byte, name string) (string, error) {
	var lang *sitter.Language
	switch language {
	case "python":
		lang = python.GetLanguage()
	case "rust":
		lang = rust.GetLanguage()
	default:
		return "", fmt.Errorf("definition lookup unsupported for language %q", language)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return "", fmt.Errorf("parse source: %w", err)
	}
	defer tree.Close()

	kinds := definitionNodes[language]
	if node := findDefinition(tree.RootNode(), source, kinds, name); node != nil {
		return node.Content(source), nil
	}
	return "", fmt.Errorf("definition %q not found", name)
}

func findDefinition(node *sitter.Node, source []byte, kinds []string, name string) *sitter.Node {
	for _, kind := range kinds {
		if node.Type() == kind {
			if id := node.ChildByFieldName("name"); id != nil && id.Content(source) == name {
				return node
			}
		}
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if found := findDefinition(node.NamedChild(i), source, kinds, name); found != nil {
			return found
		}
	}
	return nil
}
