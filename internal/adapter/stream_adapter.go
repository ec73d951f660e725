package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 32 * 1024

// StreamAdapter turns a reader into a stream of text chunks for the
// incremental parser.
type StreamAdapter interface {
	// Chunks reads r until EOF. The chunk channel is closed when reading
	// stops; the error channel then yields at most one error and is closed.
	Chunks(ctx context.Context, r io.Reader) (<-chan string, <-chan error)
}

// LocalStreamAdapter reads fixed-size chunks. Chunk boundaries fall
// anywhere, including inside a line.
type LocalStreamAdapter struct {
	size int
}

// NewLocalStreamAdapter constructs a LocalStreamAdapter. A non-positive
// size selects DefaultChunkSize.
func NewLocalStreamAdapter(size int) *LocalStreamAdapter {
	if size <= 0 {
		size = DefaultChunkSize
	}

	return &LocalStreamAdapter{size: size}
}

// Chunks streams r in chunks until EOF, a read error or ctx is done.
func (a *LocalStreamAdapter) Chunks(ctx context.Context, r io.Reader) (<-chan string, <-chan error) {
	chunks := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(chunks)

		buf := make([]byte, a.size)

		for {
			n, err := r.Read(buf)
			if n > 0 {
				select {
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				case chunks <- string(buf[:n]):
				}
			}

			if errors.Is(err, io.EOF) {
				return
			}

			if err != nil {
				errs <- fmt.Errorf("read: %w", err)
				return
			}

			if err := ctx.Err(); err != nil {
				errs <- err
				return
			}
		}
	}()

	return chunks, errs
}
