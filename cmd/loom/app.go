package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/loomkit/loom/config"
	"github.com/loomkit/loom/document"
	"github.com/loomkit/loom/internal/discover"
	"github.com/loomkit/loom/internal/runner"
	"github.com/loomkit/loom/llm"
	"github.com/loomkit/loom/protocol"
	"github.com/loomkit/loom/reformat"
	"github.com/loomkit/loom/weave"
)

// app bundles the pieces every subcommand needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newApp() (*app, error) {
	logger := slog.Default()
	cfg, err := config.NewLoader(logger).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &app{cfg: cfg, logger: logger}, nil
}

// protocolFor resolves the effective protocol: flag > config.
func (a *app) protocolFor(flagValue string) (protocol.Protocol, error) {
	name := flagValue
	if name == "" {
		name = a.cfg.Protocol
	}
	return protocol.Parse(name)
}

// outputRoot resolves the effective tangle root: flag > config.
func (a *app) outputRoot(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return a.cfg.Output.Root
}

// scopeRoot resolves the folder an input argument covers: the argument
// itself for a directory, its parent otherwise.
func (a *app) scopeRoot(arg string) string {
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		return arg
	}
	return filepath.Dir(arg)
}

// bookDir resolves the weave output directory for an input scope. The
// default is a directory named book beside the scope, never inside it,
// so woven documents are not picked up by the next discovery pass.
func (a *app) bookDir(flagValue, scope string) string {
	if flagValue != "" {
		return flagValue
	}
	if a.cfg.Output.Book != "" {
		return a.cfg.Output.Book
	}
	parent := filepath.Dir(filepath.Clean(a.scopeRoot(scope)))
	return filepath.Join(parent, weave.DefaultBookDir)
}

// loadDocuments expands an argument (file, directory, or glob) and
// parses every matched document concurrently. Document paths are kept
// as given so output paths stay predictable.
func (a *app) loadDocuments(ctx context.Context, arg string) ([]*document.Document, []error) {
	paths, err := discover.Expand(arg, a.cfg.Ignore)
	if err != nil {
		return nil, []error{err}
	}
	return runner.ParseAll(ctx, ".", paths)
}

// formatterRegistry builds the reformat registry with config overrides
// applied on top of the defaults.
func (a *app) formatterRegistry() (*reformat.Registry, error) {
	reg := reformat.NewRegistry()
	for lang, argv := range a.cfg.Formatters {
		if err := reg.SetCommand(lang, argv); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// assistant builds the chat client from the configured fallback chain.
func (a *app) assistant() *llm.Assistant {
	endpoints := []llm.Endpoint{{
		Provider: a.cfg.Model.Provider,
		URL:      a.cfg.Model.Endpoint,
		Model:    a.cfg.Model.Name,
	}}
	for _, f := range a.cfg.Model.Fallbacks {
		endpoints = append(endpoints, llm.Endpoint{Provider: f.Provider, URL: f.Endpoint, Model: f.Name})
	}

	timeout := a.cfg.Model.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	client := llm.NewClient(endpoints,
		llm.WithLogger(a.logger),
		llm.WithHTTPClient(httpClientWithTimeout(timeout)),
	)
	assistant := &llm.Assistant{Client: client}
	if temp := a.cfg.Model.Temperature; temp > 0 {
		assistant.Temperature = &temp
	}
	return assistant
}

func httpClientWithTimeout(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// reportErrors logs a batch of per-document failures and returns a
// summary error when any occurred. Folder runs finish with a summary
// instead of failing fast.
func (a *app) reportErrors(what string, errs []error) error {
	for _, err := range errs {
		a.logger.Error(what+" failed", "error", err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s: %d failure(s)", what, len(errs))
	}
	return nil
}
