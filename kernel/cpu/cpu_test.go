package cpu

import "testing"

func TestRelaxInvokesHint(t *testing.T) {
	defer func(origRelaxFn func()) { relaxFn = origRelaxFn }(relaxFn)

	relaxCallCount := 0
	SetRelaxFn(func() { relaxCallCount++ })

	Relax()
	Relax()

	if exp := 2; relaxCallCount != exp {
		t.Fatalf("expected relax hint to be invoked %d times; got %d", exp, relaxCallCount)
	}
}

func TestMemoryBarrier(t *testing.T) {
	// The fence is implemented as an atomic RMW on a private word; make
	// sure consecutive barriers do not panic and mutate only that word.
	before := fenceWord
	MemoryBarrier()
	MemoryBarrier()
	if exp, got := before+2, fenceWord; exp != got {
		t.Fatalf("expected fence word to be %d; got %d", exp, got)
	}
}
