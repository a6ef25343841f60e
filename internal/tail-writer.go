package internal

// A TailWriter is an io.Writer that retains only the last size bytes
// written to it. It is used to keep the tail of the standard error
// stream of a child process for error reports without buffering the
// full stream.
type TailWriter struct {
	buf  []byte
	pos  int
	full bool
}

// NewTailWriter returns a TailWriter that retains up to size bytes.
func NewTailWriter(size int) *TailWriter {
	return &TailWriter{buf: make([]byte, size)}
}

func (w *TailWriter) Write(p []byte) (int, error) {
	n := len(p)
	if n >= len(w.buf) {
		copy(w.buf, p[n-len(w.buf):])
		w.pos = 0
		w.full = true
		return n, nil
	}
	if w.pos+n >= len(w.buf) {
		w.full = true
	}
	m := copy(w.buf[w.pos:], p)
	copy(w.buf, p[m:])
	w.pos = (w.pos + n) % len(w.buf)
	return n, nil
}

// String returns the retained tail of the stream written so far.
func (w *TailWriter) String() string {
	if !w.full {
		return string(w.buf[:w.pos])
	}
	return string(w.buf[w.pos:]) + string(w.buf[:w.pos])
}
