package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"taptree.dev/pkg/taptree/internal/diag"
	"taptree.dev/pkg/taptree/internal/extract"
	m "taptree.dev/pkg/taptree/internal/model"
)

// errorCleaner prunes extracted I/O errors. Their call sites point at Go
// sources, so no source excerpt is rendered.
var errorCleaner = diag.NewCleaner(diag.Options{})

// SimpleUI implements UI by writing plain text to a writer.
type SimpleUI struct {
	out    io.Writer
	format Format
	styles Styles
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(out io.Writer, options ...Option) *SimpleUI {
	cfg := Config{format: FormatYAML}
	for _, opt := range options {
		opt(&cfg)
	}

	return &SimpleUI{out: out, format: cfg.format, styles: NewStyles(cfg.color)}
}

// DisplayEvents writes one YAML document, or one JSON line, per input.
func (s *SimpleUI) DisplayEvents(ctx context.Context, name m.Path, events []m.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := m.RecordOf("input", string(name), "events", events)

	if s.format == FormatJSON {
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode events of %s: %w", name, err)
		}

		return s.printf("%s\n", data)
	}

	text, err := encodeYAML(doc)
	if err != nil {
		return fmt.Errorf("encode events of %s: %w", name, err)
	}

	return s.printf("---\n%s", text)
}

// DisplayText writes text unchanged.
func (s *SimpleUI) DisplayText(ctx context.Context, _ m.Path, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := io.WriteString(s.out, text)

	return err
}

// DisplaySummary prints the summary table followed by every failing test
// point with its diagnostics and stack.
func (s *SimpleUI) DisplaySummary(ctx context.Context, summaries []m.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.printf("%s", s.summaryText(summaries))
}

func (s *SimpleUI) summaryText(summaries []m.Summary) string {
	var b strings.Builder

	b.WriteString(SummaryTable(summaries))

	for _, sum := range summaries {
		if sum.OK() {
			continue
		}

		b.WriteString("\n" + s.styles.Heading(string(sum.Name)) + "\n")

		switch {
		case sum.Err != nil:
			title := s.styles.Fail("error: " + sum.Err.Error())
			b.WriteString(s.report(title, "", errorCleaner.Clean(extract.FromErrorRecord(sum.Err))))
		case sum.Final == nil:
			b.WriteString(s.styles.Fail("stream ended before its summary") + "\n")
		default:
			for _, res := range sum.Final.Failures {
				b.WriteString(s.failure(res))
			}
		}
	}

	return b.String()
}

func (s *SimpleUI) failure(res *m.Result) string {
	title := "not ok"
	if res.ID > 0 {
		title += fmt.Sprintf(" %d", res.ID)
	}

	if res.Fullname != "" {
		title += " - " + res.Fullname
	}

	return s.report(s.styles.Fail(title), res.TapError, res.Diag)
}

// report renders a title line, an optional protocol error, the diagnostic
// fields other than the stack, and the stacks of d and its causes.
func (s *SimpleUI) report(title, tapError string, d *m.Record) string {
	var b strings.Builder

	b.WriteString(title + "\n")

	if tapError != "" {
		b.WriteString(nestedPadding + "# " + tapError + "\n")
	}

	if d.Len() > 0 {
		fields := d.Clone()
		fields.Delete("stack")

		if fields.Len() > 0 {
			if text, err := encodeYAML(fields); err == nil {
				for _, l := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
					b.WriteString(nestedPadding + l + "\n")
				}
			}
		}
	}

	for _, l := range RecursiveStack(d, s.styles) {
		b.WriteString(nestedPadding + l + "\n")
	}

	return b.String()
}

func (s *SimpleUI) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(s.out, format, args...)
	return err
}

func encodeYAML(v any) (string, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(v); err != nil {
		return "", err
	}

	if err := enc.Close(); err != nil {
		return "", err
	}

	return buf.String(), nil
}
