// Package render turns literate documents into a static HTML book.
// Markdown conversion is delegated to goldmark; the segment model only
// supplies the raw text and the frontmatter-derived page title.
package render

import (
	"bytes"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"github.com/loomkit/loom/document"
	"github.com/loomkit/loom/internal/discover"
	"github.com/loomkit/loom/internal/fsio"
)

// Options controls page generation.
type Options struct {
	// CSS is inlined into every page's <head>. Empty selects a small
	// readable default.
	CSS string
	// MermaidJS is the script URL injected when a page contains a
	// mermaid block.
	MermaidJS string
	// DisableMermaid leaves mermaid blocks as plain code listings.
	DisableMermaid bool
}

// DefaultMermaidJS is the script loaded for diagram pages.
const DefaultMermaidJS = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"

const defaultCSS = `body { max-width: 46rem; margin: 2rem auto; padding: 0 1rem; font-family: sans-serif; line-height: 1.6; }
pre { background: #f6f8fa; padding: 1rem; overflow-x: auto; }
code { font-family: monospace; }`

// Renderer converts documents to HTML pages.
type Renderer struct {
	opts   Options
	md     goldmark.Markdown
	Logger *slog.Logger
}

// New creates a Renderer. The goldmark pipeline mirrors what the
// original book output supports: tables, strikethrough, task lists,
// autolinks and footnotes.
func New(opts Options, logger *slog.Logger) *Renderer {
	if opts.CSS == "" {
		opts.CSS = defaultCSS
	}
	if opts.MermaidJS == "" {
		opts.MermaidJS = DefaultMermaidJS
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		opts: opts,
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.Table,
				extension.Strikethrough,
				extension.TaskList,
				extension.Linkify,
				extension.Footnote,
			),
			goldmark.WithRendererOptions(ghtml.WithUnsafe()),
		),
		Logger: logger,
	}
}

// Page renders one document to a full HTML page.
func (r *Renderer) Page(doc *document.Document) (string, error) {
	body := doc.Source
	if fm := doc.Frontmatter; fm != nil {
		// Frontmatter is metadata, not content.
		body = body[fm.Span.End:]
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render %s: %w", doc.Path, err)
	}

	content := buf.String()
	hasMermaid := false
	if !r.opts.DisableMermaid {
		content, hasMermaid = rewriteMermaid(content)
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(doc.OutputStem()))
	fmt.Fprintf(&b, "<style>\n%s\n</style>\n", r.opts.CSS)
	if hasMermaid {
		fmt.Fprintf(&b, "<script type=\"module\">import mermaid from %q; mermaid.initialize({startOnLoad: true});</script>\n", r.opts.MermaidJS)
	}
	b.WriteString("</head>\n<body>\n")
	b.WriteString(content)
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

// FolderReport summarizes a folder render.
type FolderReport struct {
	Created []string
	Errors  []error
}

// Folder renders every markdown file under root into outputRoot,
// preserving relative paths, and writes the list of generated files to
// created_files.txt. Per-document failures are isolated.
func (r *Renderer) Folder(root, outputRoot string, ignore []string) (*FolderReport, error) {
	docs, err := discover.Markdown(root, ignore)
	if err != nil {
		return nil, err
	}

	report := &FolderReport{}
	for _, rel := range docs {
		srcPath := filepath.Join(root, filepath.FromSlash(rel))
		raw, err := os.ReadFile(srcPath)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("render %s: %w", srcPath, err))
			continue
		}
		doc := document.Parse(rel, string(raw))

		page, err := r.Page(doc)
		if err != nil {
			report.Errors = append(report.Errors, err)
			continue
		}

		outRel := strings.TrimSuffix(rel, filepath.Ext(rel)) + ".html"
		outPath := filepath.Join(outputRoot, filepath.FromSlash(outRel))
		if err := fsio.WriteFileAtomic(outPath, []byte(page), 0o644); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("render %s: %w", srcPath, err))
			continue
		}
		report.Created = append(report.Created, outRel)
		r.Logger.Info("page rendered", "source", rel, "output", outRel)
	}

	manifest := strings.Join(report.Created, "\n")
	if manifest != "" {
		manifest += "\n"
	}
	if err := fsio.WriteFileAtomic(filepath.Join(outputRoot, "created_files.txt"), []byte(manifest), 0o644); err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("write manifest: %w", err))
	}
	return report, nil
}
