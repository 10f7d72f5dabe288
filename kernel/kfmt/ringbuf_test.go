package kfmt

import (
	"io"
	"testing"
)

func TestRingBufferReadWrite(t *testing.T) {
	var rb ringBuffer

	if _, err := rb.Read(make([]byte, 1)); err != io.EOF {
		t.Fatalf("expected read on empty buffer to return io.EOF; got %v", err)
	}

	payload := []byte("boot output")
	if n, err := rb.Write(payload); n != len(payload) || err != nil {
		t.Fatalf("expected write to return (%d, nil); got (%d, %v)", len(payload), n, err)
	}

	got := make([]byte, len(payload))
	if n, err := rb.Read(got); n != len(payload) || err != nil {
		t.Fatalf("expected read to return (%d, nil); got (%d, %v)", len(payload), n, err)
	}

	if string(got) != string(payload) {
		t.Fatalf("expected to read back %q; got %q", payload, got)
	}
}

func TestRingBufferOverflowDropsOldest(t *testing.T) {
	var rb ringBuffer

	for i := 0; i < ringBufferSize; i++ {
		rb.Write([]byte{'x'})
	}
	rb.Write([]byte("tail"))

	buf := make([]byte, ringBufferSize)
	n, err := rb.Read(buf)
	if err != nil {
		t.Fatal(err)
	}

	if exp := ringBufferSize; n != exp {
		t.Fatalf("expected full buffer read to return %d bytes; got %d", exp, n)
	}

	if exp, got := "tail", string(buf[n-4:n]); exp != got {
		t.Fatalf("expected newest bytes %q to survive the overflow; got %q", exp, got)
	}
}

func TestRingBufferWrappedRead(t *testing.T) {
	var rb ringBuffer

	// Fill most of the buffer, consume it, then write across the wrap point.
	chunk := make([]byte, ringBufferSize-2)
	rb.Write(chunk)
	rb.Read(chunk)

	rb.Write([]byte("wrap"))

	got := make([]byte, 4)
	if n, err := rb.Read(got); n != 4 || err != nil {
		t.Fatalf("expected wrapped read to return (4, nil); got (%d, %v)", n, err)
	}

	if exp := "wrap"; string(got) != exp {
		t.Fatalf("expected to read %q; got %q", exp, got)
	}
}
