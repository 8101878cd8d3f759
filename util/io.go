package util

import (
	"context"
	"io"
)

// Sizer implements io.Writer that tallies the number of bytes written.
type Sizer struct {
	Size int64
}

func (s *Sizer) Write(p []byte) (n int, err error) {
	n = len(p)
	s.Size += int64(n)
	return
}

// ChainCloser makes sure all the close functions are called exactly once and returns the first non-nil error.
//
// The order of the functions matters: the first one is the most important, so its error takes precedence.
func ChainCloser(fn1 func() error, fn2 func() error, fns ...func() error) func() error {
	return func() error {
		err, err2 := fn1(), fn2()

		if err2 != nil && err == nil {
			err = err2
		}

		for _, fn := range fns {
			if err2 = fn(); err2 != nil && err == nil {
				err = err2
			}
		}

		return err
	}
}

// NewContextWriter returns an io.Writer that fails every write with ctx.Err once ctx is done.
//
// The context is checked before each write, so a write that has already started is never interrupted.
func NewContextWriter(ctx context.Context, w io.Writer) io.Writer {
	return &contextWriter{ctx: ctx, w: w}
}

type contextWriter struct {
	ctx context.Context
	w   io.Writer
}

func (w *contextWriter) Write(p []byte) (int, error) {
	if err := w.ctx.Err(); err != nil {
		return 0, err
	}

	return w.w.Write(p)
}
