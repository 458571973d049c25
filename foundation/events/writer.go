package events

import (
	"bytes"
	"sync"
)

// Writer adapts an Events value to io.Writer so subprocess output can
// be fanned out line by line. Partial lines are buffered until the
// newline arrives; Flush sends whatever is left.
type Writer struct {
	evts *Events
	mu   sync.Mutex
	buf  bytes.Buffer
}

// NewWriter constructs a Writer sending each output line to evts.
func NewWriter(evts *Events) *Writer {
	return &Writer{
		evts: evts,
	}
}

// Write buffers p and sends one message per completed line.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)

	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Not a complete line yet. Put it back for the next write.
			w.buf.WriteString(line)
			break
		}
		w.evts.Send(line[:len(line)-1])
	}

	return len(p), nil
}

// Flush sends any buffered partial line.
func (w *Writer) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		w.evts.Send(w.buf.String())
		w.buf.Reset()
	}
}
