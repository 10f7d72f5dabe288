package kfmt

import (
	"bytes"
	"testing"
)

func TestFprintf(t *testing.T) {
	specs := []struct {
		format string
		args   []interface{}
		exp    string
	}{
		{"no verbs", nil, "no verbs"},
		{"literal %%", nil, "literal %"},
		{"%s and %s", []interface{}{"this", "that"}, "this and that"},
		{"%6s|", []interface{}{"pad"}, "   pad|"},
		{"%s", []interface{}{[]byte("bytes")}, "bytes"},
		{"%d", []interface{}{42}, "42"},
		{"%d", []interface{}{-22}, "-22"},
		{"%5d|", []interface{}{123}, "  123|"},
		{"%05d|", []interface{}{-42}, "-0042|"},
		{"%d", []interface{}{uint64(18446744073709551615)}, "18446744073709551615"},
		{"%x", []interface{}{uintptr(0xbadf00d)}, "badf00d"},
		{"%8x", []interface{}{255}, "000000ff"},
		{"%o", []interface{}{8}, "10"},
		{"%t %t", []interface{}{true, false}, "true false"},
		{"%c", []interface{}{byte('!')}, "!"},
		{"%d", nil, "(MISSING)"},
		{"%q", []interface{}{"huh"}, "%!(NOVERB)"},
		{"%d", []interface{}{"not a number"}, "%!(WRONGTYPE)"},
	}

	var buf bytes.Buffer
	for specIndex, spec := range specs {
		buf.Reset()
		Fprintf(&buf, spec.format, spec.args...)
		if got := buf.String(); got != spec.exp {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.exp, got)
		}
	}
}

func TestEarlyOutputReplay(t *testing.T) {
	defer SetOutputSink(nil)

	// Drain anything a previous test buffered, then buffer fresh output.
	var drain bytes.Buffer
	SetOutputSink(&drain)
	SetOutputSink(nil)

	Printf("early %d\n", 1)
	Printf("early %d\n", 2)

	var buf bytes.Buffer
	SetOutputSink(&buf)

	if exp, got := "early 1\nearly 2\n", buf.String(); exp != got {
		t.Fatalf("expected sink to receive replayed early output %q; got %q", exp, got)
	}

	Printf("late\n")
	if exp, got := "early 1\nearly 2\nlate\n", buf.String(); exp != got {
		t.Fatalf("expected sink to contain %q; got %q", exp, got)
	}
}
