package terminal

import (
	"bytes"
	"io"
	"sync"
	"time"
)

const (
	// DetachKey is Ctrl+] (0x1D).
	DetachKey = 0x1D

	// DetachPresses is how many consecutive DetachKey presses end a session.
	DetachPresses = 2

	// DetachWindow is the maximum gap between two presses.
	DetachWindow = 500 * time.Millisecond
)

// DetachReader passes input through unchanged until the operator presses
// DetachKey DetachPresses times within DetachWindow. Then Detached is closed
// and Read returns io.EOF. A lone DetachKey is held back until the next byte
// shows it is not part of the sequence.
type DetachReader struct {
	r   io.Reader
	now func() time.Time

	detached chan struct{}
	once     sync.Once

	ready []byte
	held  int
	last  time.Time
	err   error
	done  bool
}

// NewDetachReader wraps r.
func NewDetachReader(r io.Reader) *DetachReader {
	return &DetachReader{
		r:        r,
		now:      time.Now,
		detached: make(chan struct{}),
	}
}

// Detached is closed once the detach sequence has been read.
func (d *DetachReader) Detached() <-chan struct{} {
	return d.detached
}

func (d *DetachReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(d.ready) == 0 {
		if d.done {
			return 0, io.EOF
		}
		if d.err != nil {
			if d.held > 0 {
				d.flushHeld()
				continue
			}
			return 0, d.err
		}
		buf := make([]byte, len(p))
		n, err := d.r.Read(buf)
		d.scan(buf[:n])
		d.err = err
	}
	n := copy(p, d.ready)
	d.ready = d.ready[n:]
	return n, nil
}

func (d *DetachReader) scan(b []byte) {
	for _, c := range b {
		if d.done {
			return
		}
		if c != DetachKey {
			d.flushHeld()
			d.ready = append(d.ready, c)
			continue
		}
		now := d.now()
		if d.held > 0 && now.Sub(d.last) > DetachWindow {
			d.flushHeld()
		}
		d.held++
		d.last = now
		if d.held >= DetachPresses {
			d.held = 0
			d.done = true
			d.once.Do(func() { close(d.detached) })
		}
	}
}

func (d *DetachReader) flushHeld() {
	d.ready = append(d.ready, bytes.Repeat([]byte{DetachKey}, d.held)...)
	d.held = 0
}
