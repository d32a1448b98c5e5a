package megaupload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/semaphore"
)

// fileReader reads byte ranges from the source file asynchronously
// (spec §4.2), bounding the number of in-flight reads with a
// semaphore so a very wide chunk plan can't open unbounded read
// traffic against the underlying storage.
type fileReader struct {
	path string
	sem  *semaphore.Weighted
}

// newFileReader returns a reader bounded to maxInFlight concurrent
// reads. Reads are I/O-bound and, per spec §5, "may be any number in
// flight" — maxInFlight exists only to keep resource use sane on very
// wide chunk plans, not to enforce an ordering guarantee.
func newFileReader(path string, maxInFlight int64) *fileReader {
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	return &fileReader{path: path, sem: semaphore.NewWeighted(maxInFlight)}
}

// ReadChunk returns exactly end-start bytes from the source file,
// unless end equals the file size, in which case it returns up to
// EOF. A short read for any other reason is an IoError.
func (r *fileReader) ReadChunk(ctx context.Context, b ChunkBoundary, fileSize int64) ([]byte, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.sem.Release(1)

	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrIO, r.path, err)
	}
	defer f.Close()

	want := b.End - b.Start
	buf := make([]byte, want)
	n, err := f.ReadAt(buf, b.Start)
	if err != nil && !(errors.Is(err, io.EOF) && b.End == fileSize) {
		return nil, fmt.Errorf("%w: read [%d,%d) of %s: %v", ErrIO, b.Start, b.End, r.path, err)
	}
	if int64(n) != want && b.End != fileSize {
		return nil, fmt.Errorf("%w: short read at [%d,%d) of %s: got %d bytes", ErrIO, b.Start, b.End, r.path, n)
	}
	return buf[:n], nil
}
