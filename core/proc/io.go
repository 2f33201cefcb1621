package proc

import (
	"io"
)

// Stdio bundles the three standard streams handed to a built-in.
type Stdio struct {
	In  io.ReadCloser
	Out io.WriteCloser
	Err io.WriteCloser
}

// NewStdio adapts arbitrary readers/writers into a Stdio. Nil streams
// become /dev/null style handles: reads return EOF, writes are discarded.
func NewStdio(stdin io.Reader, stdout, stderr io.Writer) Stdio {
	return Stdio{
		In:  toReadCloserOrDiscard(stdin),
		Out: toWriteCloserOrDiscard(stdout),
		Err: toWriteCloserOrDiscard(stderr),
	}
}

func toWriteCloserOrDiscard(w io.Writer) io.WriteCloser {
	if w == nil {
		return &devNull{}
	}
	if wc, ok := w.(io.WriteCloser); ok {
		return wc
	}

	return nopWriteCloser{w}
}

func toReadCloserOrDiscard(r io.Reader) io.ReadCloser {
	if r == nil {
		return &devNull{}
	}
	if rc, ok := r.(io.ReadCloser); ok {
		return rc
	}

	return io.NopCloser(r)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// devNull implements io.ReadCloser and io.WriteCloser, returning EOF on
// reads and discarding writes.
type devNull struct{}

var _ io.ReadCloser = (*devNull)(nil)
var _ io.WriteCloser = (*devNull)(nil)

func (*devNull) Read(p []byte) (int, error)  { return 0, io.EOF }
func (*devNull) Write(p []byte) (int, error) { return len(p), nil }
func (*devNull) Close() error                { return nil }
