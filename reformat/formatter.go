// Package reformat rewrites fenced code blocks in place using external
// formatters, preserving every byte of the document outside the block
// contents it touches.
package reformat

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Formatter formats a single block's content for one language.
type Formatter interface {
	// Format returns the formatted content. Implementations must not
	// modify anything but the content itself.
	Format(ctx context.Context, content string) (string, error)
}

// CommandFormatter pipes content through an external command's stdin
// and reads the result from stdout. A non-zero exit is a block-local
// failure reported with the command's stderr.
type CommandFormatter struct {
	Name string
	Args []string
}

func (f *CommandFormatter) Format(ctx context.Context, content string) (string, error) {
	cmd := exec.CommandContext(ctx, f.Name, f.Args...)
	cmd.Stdin = strings.NewReader(content)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s: %s: %w", f.Name, msg, err)
		}
		return "", fmt.Errorf("%s: %w", f.Name, err)
	}
	return stdout.String(), nil
}

// Registry maps languages to formatters. The zero value is not usable;
// call NewRegistry.
type Registry struct {
	formatters map[string]Formatter
}

// NewRegistry returns a registry preloaded with the default formatter
// commands. Config overrides replace defaults per language via Set.
func NewRegistry() *Registry {
	r := &Registry{formatters: map[string]Formatter{}}
	r.Set("python", &CommandFormatter{Name: "black", Args: []string{"--quiet", "-"}})
	r.Set("rust", &CommandFormatter{Name: "rustfmt", Args: []string{"--emit", "stdout", "--edition", "2021"}})
	r.Set("go", &CommandFormatter{Name: "gofmt", Args: nil})
	r.Set("c", &CommandFormatter{Name: "clang-format", Args: nil})
	r.Set("cpp", &CommandFormatter{Name: "clang-format", Args: nil})
	return r
}

// Set registers or replaces the formatter for a language.
func (r *Registry) Set(language string, f Formatter) {
	r.formatters[language] = f
}

// SetCommand registers an external command as the formatter for a
// language. argv[0] is the command name.
func (r *Registry) SetCommand(language string, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("formatter for %s: empty command", language)
	}
	r.Set(language, &CommandFormatter{Name: argv[0], Args: argv[1:]})
	return nil
}

// Lookup returns the formatter for a language, or nil if the language
// has none. Blocks without a formatter are left untouched.
func (r *Registry) Lookup(language string) Formatter {
	return r.formatters[language]
}
