// Package progress shows spinners and transfer bars on the console.
package progress

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
)

var spinnerSpeed = 1 * time.Second
var spinnerInstance = spinner.New(spinner.CharSets[14], spinnerSpeed)

// Show starts showing a progress spinner.
func Show(text string, args ...interface{}) *spinner.Spinner {
	message := " " + fmt.Sprintf(text, args...)
	spinnerInstance.Suffix = message
	spinnerInstance.Stop()
	spinnerInstance.Start()
	return spinnerInstance
}

// Stop stops the progress spinner.
func Stop() {
	spinnerInstance.Stop()
}

// NewBar returns a byte counting bar. A silent bar is returned if visible is false.
func NewBar(size int64, visible bool, description ...string) *progressbar.ProgressBar {
	if visible {
		return progressbar.DefaultBytes(size, description...)
	}
	return progressbar.DefaultBytesSilent(size, description...)
}

type barKey struct{}

// WithBar returns a copy of ctx under which Reader reports to bar.
func WithBar(ctx context.Context, bar *progressbar.ProgressBar) context.Context {
	return context.WithValue(ctx, barKey{}, bar)
}

// Reader wraps r so that reads advance the bar attached to ctx. r is returned as is if ctx carries no bar.
func Reader(ctx context.Context, r io.Reader) io.Reader {
	bar, ok := ctx.Value(barKey{}).(*progressbar.ProgressBar)
	if !ok || bar == nil {
		return r
	}
	pr := progressbar.NewReader(r, bar)
	return &pr
}

// ReadSeeker is Reader for readers that may be rewound. The bar follows the read position.
func ReadSeeker(ctx context.Context, rs io.ReadSeeker) io.ReadSeeker {
	bar, ok := ctx.Value(barKey{}).(*progressbar.ProgressBar)
	if !ok || bar == nil {
		return rs
	}
	return &seekReader{rs: rs, bar: bar}
}

type seekReader struct {
	rs  io.ReadSeeker
	bar *progressbar.ProgressBar
}

func (r *seekReader) Read(p []byte) (int, error) {
	n, err := r.rs.Read(p)
	_ = r.bar.Add(n)
	return n, err
}

func (r *seekReader) Seek(offset int64, whence int) (int64, error) {
	pos, err := r.rs.Seek(offset, whence)
	if err == nil {
		_ = r.bar.Set64(pos)
	}
	return pos, err
}
