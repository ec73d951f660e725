package domain_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"taptree.dev/pkg/taptree/internal/adapter"
	adaptermocks "taptree.dev/pkg/taptree/internal/adapter/mocks"
	controllermocks "taptree.dev/pkg/taptree/internal/controller/mocks"
	"taptree.dev/pkg/taptree/internal/domain"
	m "taptree.dev/pkg/taptree/internal/model"
	"taptree.dev/pkg/taptree/internal/parser"
	"taptree.dev/pkg/taptree/internal/stringify"
)

func TestMain(t *testing.M) {
	goleak.VerifyTestMain(t)
}

func fixture(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	return string(data)
}

type harness struct {
	fs    *adaptermocks.MockSourceFSAdapter
	store *adaptermocks.MockReportStore
	ui    *controllermocks.MockUI
	wf    domain.Workflow
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		fs:    adaptermocks.NewMockSourceFSAdapter(t),
		store: adaptermocks.NewMockReportStore(t),
		ui:    controllermocks.NewMockUI(t),
	}

	h.wf = domain.NewWorkflow(h.fs, adapter.NewLocalStreamAdapter(7), h.store, h.ui)

	return h
}

// serve makes the mocked filesystem expand to the given fixtures and open
// them from testdata.
func (h *harness) serve(t *testing.T, names ...string) []m.Path {
	paths := make([]m.Path, len(names))
	for i, n := range names {
		paths[i] = m.Path(n)
	}

	h.fs.EXPECT().Expand(paths).Return(paths, nil).Once()

	for _, n := range names {
		text := fixture(t, n)
		h.fs.EXPECT().Open(m.Path(n)).Return(io.NopCloser(strings.NewReader(text)), nil).Once()
	}

	return paths
}

func TestWorkflow_Parse(t *testing.T) {
	h := newHarness(t)
	paths := h.serve(t, "nested.tap", "math.tap")

	var displayed []m.Path

	h.ui.EXPECT().DisplayEvents(mock.Anything, mock.Anything, mock.Anything).
		Run(func(_ context.Context, name m.Path, _ []m.Event) { displayed = append(displayed, name) }).
		Return(nil).Times(2)

	h.fs.EXPECT().ReadFile(m.Path("test/math.js")).Return(nil, os.ErrNotExist).Maybe()

	summaries, err := h.wf.Parse(context.Background(), domain.Args{Paths: paths, Parallel: 2})
	require.NoError(t, err)

	assert.Equal(t, paths, displayed, "inputs are displayed in argument order")
	require.Len(t, summaries, 2)

	want := parser.ParseString(fixture(t, "nested.tap"), parser.Options{})
	assert.Equal(t, stringify.Stringify(want, stringify.Options{}), stringify.Stringify(summaries[0].Events, stringify.Options{}))
	assert.True(t, summaries[0].OK())
	assert.False(t, summaries[1].OK())
	assert.Equal(t, 1, summaries[1].Final.Fail)
}

func TestWorkflow_CleansDiagnostics(t *testing.T) {
	h := newHarness(t)
	paths := h.serve(t, "math.tap")

	h.ui.EXPECT().DisplayEvents(mock.Anything, m.Path("math.tap"), mock.Anything).Return(nil).Once()
	h.fs.EXPECT().ReadFile(m.Path("test/math.js")).
		Return([]byte(strings.Repeat("\n", 11)+"    sub(1, 2)\n"), nil).Once()

	summaries, err := h.wf.Parse(context.Background(), domain.Args{Paths: paths})
	require.NoError(t, err)

	var subtracts *m.Result

	for _, e := range summaries[0].Events {
		if e.Type != m.EventChild {
			continue
		}

		for _, c := range e.Children {
			if c.Type == m.EventAssert && c.Result.Name == "subtracts" {
				subtracts = c.Result
			}
		}
	}

	require.NotNil(t, subtracts)

	d := subtracts.Diag
	assert.False(t, d.Has("found"))
	assert.False(t, d.Has("wanted"))
	assert.Contains(t, d.Value("diff"), "-2")
	assert.Contains(t, d.Value("diff"), "+1")
	assert.Contains(t, d.Value("source"), "sub(1, 2)")
}

func TestWorkflow_CleanDeny(t *testing.T) {
	h := newHarness(t)
	paths := h.serve(t, "math.tap")

	h.ui.EXPECT().DisplayEvents(mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	summaries, err := h.wf.Parse(context.Background(), domain.Args{Paths: paths, Deny: []string{"at"}})
	require.NoError(t, err)

	for _, e := range summaries[0].Events {
		if e.Type == m.EventChild {
			for _, c := range e.Children {
				if c.Type == m.EventAssert && c.Result.Diag.Len() > 0 {
					assert.False(t, c.Result.Diag.Has("at"))
					assert.False(t, c.Result.Diag.Has("source"))
				}
			}
		}
	}
}

func TestWorkflow_FormatDisplays(t *testing.T) {
	h := newHarness(t)
	paths := h.serve(t, "nested.tap")

	want := stringify.Stringify(parser.ParseString(fixture(t, "nested.tap"), parser.Options{}), stringify.Options{Flat: true})

	h.ui.EXPECT().DisplayText(mock.Anything, m.Path("nested.tap"), want).Return(nil).Once()

	_, err := h.wf.Format(context.Background(), domain.Args{Paths: paths, Flat: true})
	require.NoError(t, err)
}

func TestWorkflow_FormatSaves(t *testing.T) {
	h := newHarness(t)
	paths := h.serve(t, "math.tap")

	h.fs.EXPECT().ReadFile(mock.Anything).Return(nil, os.ErrNotExist).Maybe()
	h.store.EXPECT().SaveReport(m.Path("out"), m.Path("math.tap"), ".tap", mock.MatchedBy(func(b []byte) bool {
		return strings.HasPrefix(string(b), "TAP version 14\n# Subtest: math\n")
	})).Return(m.Path("out/math.tap"), nil).Once()

	_, err := h.wf.Format(context.Background(), domain.Args{Paths: paths, Output: "out"})
	require.NoError(t, err)
}

func TestWorkflow_FormatSaveFails(t *testing.T) {
	h := newHarness(t)
	paths := h.serve(t, "nested.tap")

	boom := errors.New("disk full")
	h.store.EXPECT().SaveReport(mock.Anything, mock.Anything, ".flat.tap", mock.Anything).Return(m.Path(""), boom).Once()

	_, err := h.wf.Format(context.Background(), domain.Args{Paths: paths, Output: "out", Flat: true})
	assert.ErrorIs(t, err, boom)
}

func TestWorkflow_Summarize(t *testing.T) {
	t.Run("not ok", func(t *testing.T) {
		h := newHarness(t)
		paths := h.serve(t, "nested.tap", "math.tap")

		h.fs.EXPECT().ReadFile(mock.Anything).Return(nil, os.ErrNotExist).Maybe()
		h.ui.EXPECT().DisplaySummary(mock.Anything, mock.MatchedBy(func(s []m.Summary) bool {
			return len(s) == 2 && s[0].Name == "nested.tap" && s[1].Name == "math.tap"
		})).Return(nil).Once()

		_, err := h.wf.Summarize(context.Background(), domain.Args{Paths: paths})
		assert.ErrorIs(t, err, domain.ErrNotOK)
	})

	t.Run("ok", func(t *testing.T) {
		h := newHarness(t)
		paths := h.serve(t, "nested.tap")

		h.ui.EXPECT().DisplaySummary(mock.Anything, mock.Anything).Return(nil).Once()

		summaries, err := h.wf.Summarize(context.Background(), domain.Args{Paths: paths})
		require.NoError(t, err)
		assert.Equal(t, 9, countAsserts(summaries[0].Events))
	})
}

func TestWorkflow_OpenFailure(t *testing.T) {
	h := newHarness(t)

	paths := []m.Path{"gone.tap", "nested.tap"}
	h.fs.EXPECT().Expand(paths).Return(paths, nil).Once()
	h.fs.EXPECT().Open(m.Path("gone.tap")).Return(nil, os.ErrNotExist).Once()
	h.fs.EXPECT().Open(m.Path("nested.tap")).Return(io.NopCloser(strings.NewReader(fixture(t, "nested.tap"))), nil).Once()

	h.ui.EXPECT().DisplayText(mock.Anything, m.Path("nested.tap"), mock.Anything).Return(nil).Once()

	summaries, err := h.wf.Format(context.Background(), domain.Args{Paths: paths})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorContains(t, err, "open gone.tap")

	assert.Nil(t, summaries[0].Final)
	assert.False(t, summaries[0].OK())
	assert.True(t, summaries[1].OK())
}

func TestWorkflow_ReadFailureAbandonsStream(t *testing.T) {
	h := newHarness(t)

	paths := []m.Path{"cut.tap"}
	boom := errors.New("connection reset")
	r := io.MultiReader(strings.NewReader("TAP version 13\n# Subtest\n    ok 1 - a\n"), &failingReader{err: boom})

	h.fs.EXPECT().Expand(paths).Return(paths, nil).Once()
	h.fs.EXPECT().Open(m.Path("cut.tap")).Return(io.NopCloser(r), nil).Once()
	h.ui.EXPECT().DisplayEvents(mock.Anything, m.Path("cut.tap"), mock.Anything).Return(nil).Once()

	summaries, err := h.wf.Parse(context.Background(), domain.Args{Paths: paths})
	assert.ErrorIs(t, err, boom)

	require.Len(t, summaries, 1)
	assert.Nil(t, summaries[0].Final, "no summary without the end of the stream")

	for _, e := range summaries[0].Events {
		assert.NotEqual(t, m.EventComplete, e.Type)
	}
}

func TestWorkflow_NoInput(t *testing.T) {
	h := newHarness(t)

	h.fs.EXPECT().Expand([]m.Path(nil)).Return(nil, adapter.ErrNoInput).Once()

	_, err := h.wf.Parse(context.Background(), domain.Args{})
	assert.ErrorIs(t, err, adapter.ErrNoInput)
}

func TestWorkflow_Cancelled(t *testing.T) {
	h := newHarness(t)

	paths := []m.Path{"nested.tap"}
	h.fs.EXPECT().Expand(paths).Return(paths, nil).Once()
	h.fs.EXPECT().Open(mock.Anything).Return(io.NopCloser(strings.NewReader(fixture(t, "nested.tap"))), nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.wf.Summarize(ctx, domain.Args{Paths: paths})
	assert.ErrorIs(t, err, context.Canceled)
}

type failingReader struct {
	err error
}

func (r *failingReader) Read([]byte) (int, error) {
	return 0, r.err
}

func countAsserts(events []m.Event) int {
	n := 0

	for _, e := range events {
		switch e.Type {
		case m.EventAssert:
			n++
		case m.EventChild:
			n += countAsserts(e.Children)
		}
	}

	return n
}
