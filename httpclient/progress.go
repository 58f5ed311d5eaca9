package httpclient

import (
	"context"
	"io"
	"time"
)

// defaultProgressInterval bounds how often a progress sink is invoked so a
// fast transfer cannot flood the caller.
const defaultProgressInterval = 100 * time.Millisecond

// progressReader wraps a body stream, counting cumulative bytes and
// reporting them to the sink at a bounded rate. Every read observes the
// request context first, so a cancelled transfer stops within one I/O step
// instead of draining to completion.
type progressReader struct {
	ctx         context.Context
	r           io.Reader
	total       int64
	transferred int64
	sink        ProgressFunc
	interval    time.Duration
	lastReport  time.Time
}

func newProgressReader(ctx context.Context, r io.Reader, total int64, sink ProgressFunc) *progressReader {
	return &progressReader{
		ctx:      ctx,
		r:        r,
		total:    total,
		sink:     sink,
		interval: defaultProgressInterval,
	}
}

// Read implements io.Reader.
func (p *progressReader) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}

	n, err := p.r.Read(b)
	if n > 0 {
		p.transferred += int64(n)
		p.report(false)
	}
	if err == io.EOF {
		p.report(true)
	}
	return n, err
}

// Transferred returns the cumulative byte count.
func (p *progressReader) Transferred() int64 {
	return p.transferred
}

// report invokes the sink, throttled to the configured interval. The final
// state is always delivered.
func (p *progressReader) report(final bool) {
	if p.sink == nil {
		return
	}
	now := time.Now()
	if !final && now.Sub(p.lastReport) < p.interval {
		return
	}
	p.lastReport = now
	p.sink(p.transferred, p.total)
}

// copyWithProgress streams src into dst through a progress-tracked reader.
// total is -1 when the overall size is unknown. Returns the bytes written
// and the first error encountered; a context cancellation surfaces as the
// context's error within one I/O step.
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, sink ProgressFunc) (int64, error) {
	pr := newProgressReader(ctx, src, total, sink)
	written, err := io.Copy(dst, pr)
	return written, err
}
