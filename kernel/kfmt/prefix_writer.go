package kfmt

import "io"

// PrefixWriter is an io.Writer that inserts Prefix at the beginning of every
// line it writes to Sink. It is used to tag the output of subsystem unit
// initializers with the unit name.
type PrefixWriter struct {
	// Sink is the Writer that the prefixed output goes to.
	Sink io.Writer

	// Prefix is inserted before the first byte of each output line.
	Prefix []byte

	// atLineStart tracks whether the next written byte starts a new line.
	atLineStart bool

	// primed is false until the first Write call.
	primed bool
}

// Write writes p to the underlying sink, inserting the configured prefix
// after every newline. The returned count covers only the bytes of p.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	if !w.primed {
		w.atLineStart = true
		w.primed = true
	}

	for i, b := range p {
		if w.atLineStart {
			if _, err := w.Sink.Write(w.Prefix); err != nil {
				return i, err
			}
			w.atLineStart = false
		}

		if _, err := w.Sink.Write(p[i : i+1]); err != nil {
			return i, err
		}

		if b == '\n' {
			w.atLineStart = true
		}
	}

	return len(p), nil
}
