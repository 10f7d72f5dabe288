package kfmt

import (
	"bytes"
	"testing"
)

func TestPrefixWriter(t *testing.T) {
	var (
		buf bytes.Buffer
		w   = PrefixWriter{Sink: &buf, Prefix: []byte("[apic] ")}
	)

	Fprintf(&w, "first line\nsecond line\n")
	Fprintf(&w, "third line\n")

	exp := "[apic] first line\n[apic] second line\n[apic] third line\n"
	if got := buf.String(); got != exp {
		t.Fatalf("expected output:\n%q\ngot:\n%q", exp, got)
	}
}

func TestPrefixWriterPartialLine(t *testing.T) {
	var (
		buf bytes.Buffer
		w   = PrefixWriter{Sink: &buf, Prefix: []byte("> ")}
	)

	w.Write([]byte("a"))
	w.Write([]byte("b\nc"))

	if exp, got := "> ab\n> c", buf.String(); exp != got {
		t.Fatalf("expected output %q; got %q", exp, got)
	}
}
