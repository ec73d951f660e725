package adapter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(chunks <-chan string, errs <-chan error) ([]string, error) {
	var got []string
	for c := range chunks {
		got = append(got, c)
	}

	return got, <-errs
}

func TestLocalStreamAdapter_Chunks(t *testing.T) {
	text := "TAP version 13\nok 1 - a\n1..1\n"

	got, err := collect(NewLocalStreamAdapter(5).Chunks(context.Background(), strings.NewReader(text)))
	require.NoError(t, err)

	assert.Equal(t, text, strings.Join(got, ""))

	for _, c := range got {
		assert.LessOrEqual(t, len(c), 5)
	}
}

func TestLocalStreamAdapter_DefaultSize(t *testing.T) {
	got, err := collect(NewLocalStreamAdapter(0).Chunks(context.Background(), strings.NewReader("ok\n")))
	require.NoError(t, err)
	assert.Equal(t, []string{"ok\n"}, got)
}

func TestLocalStreamAdapter_ReadError(t *testing.T) {
	boom := errors.New("boom")
	r := iotest.TimeoutReader(strings.NewReader("ok 1\nok 2\n"))

	got, err := collect(NewLocalStreamAdapter(5).Chunks(context.Background(), r))
	assert.Equal(t, []string{"ok 1\n"}, got)
	require.Error(t, err)
	assert.ErrorIs(t, err, iotest.ErrTimeout)

	_, err = collect(NewLocalStreamAdapter(5).Chunks(context.Background(), iotest.ErrReader(boom)))
	assert.ErrorIs(t, err, boom)
}

func TestLocalStreamAdapter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chunks, errs := NewLocalStreamAdapter(1).Chunks(ctx, strings.NewReader("ok 1\n"))

	_, err := collect(chunks, errs)
	assert.ErrorIs(t, err, context.Canceled)
}
