package kfmt

import "io"

// ringBufferSize is the capacity of the early-boot output buffer. It must be
// a power of two and is sized to hold the full pre-console boot banner.
const ringBufferSize = 4096

// ringBuffer buffers Printf output generated before a console sink has been
// installed. When the buffer fills up the oldest bytes are overwritten; the
// most recent diagnostics are the interesting ones after a failed boot.
type ringBuffer struct {
	data   [ringBufferSize]byte
	rIndex int
	wIndex int
	used   int
}

// Write appends p to the buffer, dropping the oldest bytes on overflow.
// It never fails.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.data[rb.wIndex] = b
		rb.wIndex = (rb.wIndex + 1) & (ringBufferSize - 1)
		if rb.used < ringBufferSize {
			rb.used++
		} else {
			rb.rIndex = rb.wIndex
		}
	}

	return len(p), nil
}

// Read copies up to len(p) of the oldest buffered bytes into p, removing
// them from the buffer. It returns io.EOF when the buffer is empty.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.used == 0 {
		return 0, io.EOF
	}

	n := 0
	for ; n < len(p) && rb.used > 0; n++ {
		p[n] = rb.data[rb.rIndex]
		rb.rIndex = (rb.rIndex + 1) & (ringBufferSize - 1)
		rb.used--
	}

	return n, nil
}
