// Package domain wires the protocol core to the adapters and the UI.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"taptree.dev/pkg/taptree/internal/adapter"
	"taptree.dev/pkg/taptree/internal/controller"
	"taptree.dev/pkg/taptree/internal/diag"
	m "taptree.dev/pkg/taptree/internal/model"
	"taptree.dev/pkg/taptree/internal/parser"
	"taptree.dev/pkg/taptree/internal/stringify"
)

// ErrNotOK is returned by Summarize when at least one stream failed.
var ErrNotOK = errors.New("test run not ok")

// DefaultParallel is the number of streams parsed concurrently.
const DefaultParallel = 4

// sourceContextLines is the number of lines shown around a failing call site.
const sourceContextLines = 2

// Args contains the arguments shared by every workflow operation.
type Args struct {
	Paths  []m.Path
	Parser parser.Options
	// Deny extends the diagnostic deny-list.
	Deny     []string
	Parallel int
	// Flat renumbers the whole tree when formatting.
	Flat bool
	// Output, when set, is the directory formatted streams are saved to
	// instead of being displayed.
	Output m.Path
}

// Workflow drives the parse, format and summary operations over many
// protocol streams.
type Workflow interface {
	// Parse displays the event stream of every input.
	Parse(ctx context.Context, args Args) ([]m.Summary, error)
	// Format re-renders every input as protocol text.
	Format(ctx context.Context, args Args) ([]m.Summary, error)
	// Summarize displays the per-input table and failing test points.
	Summarize(ctx context.Context, args Args) ([]m.Summary, error)
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.StreamAdapter
	adapter.ReportStore
	controller.UI
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	streamAdapter adapter.StreamAdapter,
	reportStore adapter.ReportStore,
	ui controller.UI,
) Workflow {
	return &workflow{
		SourceFSAdapter: fsAdapter,
		StreamAdapter:   streamAdapter,
		ReportStore:     reportStore,
		UI:              ui,
	}
}

func (w *workflow) Parse(ctx context.Context, args Args) ([]m.Summary, error) {
	summaries, err := w.collect(ctx, args)
	if err != nil {
		return nil, err
	}

	for _, s := range summaries {
		if err := w.DisplayEvents(ctx, s.Name, s.Events); err != nil {
			return summaries, fmt.Errorf("display %s: %w", s.Name, err)
		}
	}

	return summaries, inputErrors(summaries)
}

func (w *workflow) Format(ctx context.Context, args Args) ([]m.Summary, error) {
	summaries, err := w.collect(ctx, args)
	if err != nil {
		return nil, err
	}

	opts := stringify.Options{Flat: args.Flat}
	ext := ".tap"

	if args.Flat {
		ext = ".flat.tap"
	}

	for _, s := range summaries {
		if s.Err != nil {
			continue
		}

		text := stringify.Stringify(s.Events, opts)

		if args.Output != "" {
			path, err := w.SaveReport(args.Output, s.Name, ext, []byte(text))
			if err != nil {
				return summaries, fmt.Errorf("save %s: %w", s.Name, err)
			}

			slog.Info("Saved formatted stream", "input", s.Name, "path", path)

			continue
		}

		if err := w.DisplayText(ctx, s.Name, text); err != nil {
			return summaries, fmt.Errorf("display %s: %w", s.Name, err)
		}
	}

	return summaries, inputErrors(summaries)
}

func (w *workflow) Summarize(ctx context.Context, args Args) ([]m.Summary, error) {
	summaries, err := w.collect(ctx, args)
	if err != nil {
		return nil, err
	}

	if err := w.DisplaySummary(ctx, summaries); err != nil {
		return summaries, fmt.Errorf("display summary: %w", err)
	}

	for _, s := range summaries {
		if !s.OK() {
			return summaries, ErrNotOK
		}
	}

	return summaries, nil
}

// collect parses every input, at most args.Parallel at a time. Per-input
// read failures are kept in the summaries; only expansion and
// cancellation fail the whole call.
func (w *workflow) collect(ctx context.Context, args Args) ([]m.Summary, error) {
	paths, err := w.Expand(args.Paths)
	if err != nil {
		return nil, fmt.Errorf("expand inputs: %w", err)
	}

	cleaner := diag.NewCleaner(diag.Options{
		Deny:         args.Deny,
		Reader:       diag.ReadFileFunc(func(p string) ([]byte, error) { return w.ReadFile(m.Path(p)) }),
		ContextLines: sourceContextLines,
	})

	parallel := args.Parallel
	if parallel <= 0 {
		parallel = DefaultParallel
	}

	summaries := make([]m.Summary, len(paths))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallel)

	for i, path := range paths {
		group.Go(func() error {
			summaries[i] = w.parseOne(groupCtx, path, args.Parser, cleaner)
			return groupCtx.Err()
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("Parsed inputs", "count", len(summaries), "parallel", parallel)

	return summaries, nil
}

func (w *workflow) parseOne(ctx context.Context, path m.Path, opts parser.Options, cleaner *diag.Cleaner) m.Summary {
	sum := m.Summary{Name: path}

	rc, err := w.Open(path)
	if err != nil {
		slog.Warn("Failed to open input", "input", path, "error", err)
		sum.Err = fmt.Errorf("open %s: %w", path, err)

		return sum
	}

	defer func() {
		_ = rc.Close()
	}()

	p := parser.New(opts)
	chunks, errs := w.Chunks(ctx, rc)

	for chunk := range chunks {
		sum.Events = append(sum.Events, p.Feed(chunk)...)
	}

	if err := <-errs; err != nil {
		// The stream is abandoned: open levels stay unclosed.
		slog.Warn("Failed to read input", "input", path, "error", err)
		sum.Err = fmt.Errorf("read %s: %w", path, err)

		return sum
	}

	sum.Events = append(sum.Events, p.End()...)
	cleanDiagnostics(sum.Events, cleaner, map[*m.Result]bool{})
	sum.Final = rootFinal(sum.Events)

	if sum.Final != nil && !sum.Final.OK {
		slog.Debug("Input not ok", "input", path, "fail", sum.Final.Fail, "bailout", sum.Final.Bailout)
	}

	return sum
}

// cleanDiagnostics sanitizes the diagnostics of every result in the tree,
// including those only reachable through summaries.
func cleanDiagnostics(events []m.Event, cleaner *diag.Cleaner, seen map[*m.Result]bool) {
	clean := func(res *m.Result) {
		if res == nil || seen[res] {
			return
		}

		seen[res] = true

		if res.Diag.Len() > 0 {
			res.Diag = cleaner.Clean(res.Diag)
		}
	}

	for _, e := range events {
		switch e.Type {
		case m.EventAssert:
			clean(e.Result)
		case m.EventChild:
			cleanDiagnostics(e.Children, cleaner, seen)
		case m.EventComplete:
			for _, list := range [][]*m.Result{e.Final.Failures, e.Final.Skips, e.Final.Todos, e.Final.Passes} {
				for _, res := range list {
					clean(res)
				}
			}
		}
	}
}

func rootFinal(events []m.Event) *m.FinalResults {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == m.EventComplete {
			return events[i].Final
		}
	}

	return nil
}

func inputErrors(summaries []m.Summary) error {
	var errs []error

	for _, s := range summaries {
		if s.Err != nil {
			errs = append(errs, s.Err)
		}
	}

	return errors.Join(errs...)
}
