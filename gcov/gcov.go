// Package gcov hooks an optional coverage collector into early boot.
// Coverage is diagnostics-only: a failing collector is reported on the
// console and otherwise ignored.
package gcov

import (
	"hypercore/kernel"
	"hypercore/kernel/kfmt"
)

var collectorFn func() *kernel.Error

// SetCollector registers the coverage collector invoked by Init. Passing nil
// disables coverage.
func SetCollector(fn func() *kernel.Error) {
	collectorFn = fn
}

// Init starts the registered coverage collector, if any. Init never fails;
// coverage must not be able to break a boot.
func Init() {
	if collectorFn == nil {
		return
	}

	if err := collectorFn(); err != nil {
		kfmt.Printf("gcov: collector init failed: %s\n", err.Message)
	}
}
