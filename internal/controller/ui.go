// Package controller renders parsed protocol streams for the terminal.
package controller

import (
	"context"
	"io"
	"os"

	m "taptree.dev/pkg/taptree/internal/model"
)

// Format selects how event streams are serialized.
type Format string

// Available Format values.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat maps a configuration value to a Format, defaulting to YAML.
func ParseFormat(s string) Format {
	if Format(s) == FormatJSON {
		return FormatJSON
	}

	return FormatYAML
}

// Option is a functional option for NewSimpleUI and NewTUI.
type Option func(*Config)

// Config holds the rendering configuration of a UI.
type Config struct {
	format Format
	color  bool
	pager  bool
}

// WithFormat sets the event serialization format.
func WithFormat(f Format) Option {
	return func(c *Config) {
		c.format = f
	}
}

// WithColor enables terminal styling.
func WithColor(color bool) Option {
	return func(c *Config) {
		c.color = color
	}
}

// WithPager pages long summaries interactively when writing to a terminal.
func WithPager(pager bool) Option {
	return func(c *Config) {
		c.pager = pager
	}
}

// UI displays the results of a workflow. Implementations decide how the
// text is painted.
type UI interface {
	// DisplayEvents shows the event stream parsed from one input.
	DisplayEvents(ctx context.Context, name m.Path, events []m.Event) error
	// DisplayText shows protocol text rendered from one input.
	DisplayText(ctx context.Context, name m.Path, text string) error
	// DisplaySummary shows the per-input table and the failing test points.
	DisplaySummary(ctx context.Context, summaries []m.Summary) error
}

// NewUI returns the UI writing to out. A terminal gets styled text and,
// when enabled, the summary pager.
func NewUI(out io.Writer, options ...Option) UI {
	f, ok := out.(*os.File)
	if !ok || !IsTTY(f) {
		return NewSimpleUI(out, options...)
	}

	options = append([]Option{WithColor(true)}, options...)

	var cfg Config
	for _, opt := range options {
		opt(&cfg)
	}

	if cfg.pager {
		return NewTUI(out, options...)
	}

	return NewSimpleUI(out, options...)
}
