// Package unit keeps the registry of subsystem initializers that the master
// CPU runs during late setup. Units register themselves from their package
// init functions and are initialized strictly in registration order.
package unit

import (
	"io"

	"hypercore/kernel"
)

// Unit is implemented by every registered subsystem.
type Unit interface {
	// UnitName returns the name of the subsystem.
	UnitName() string

	// Init initializes the subsystem. Diagnostic output goes to the
	// supplied Writer via kfmt.Fprintf.
	Init(io.Writer) *kernel.Error
}

var registeredUnits []Unit

// Register appends u to the unit registry.
func Register(u Unit) {
	registeredUnits = append(registeredUnits, u)
}

// Count returns the number of registered units.
func Count() int {
	return len(registeredUnits)
}

// ForEach invokes fn for every registered unit in registration order and
// returns the first non-nil error, stopping there.
func ForEach(fn func(Unit) *kernel.Error) *kernel.Error {
	for _, u := range registeredUnits {
		if err := fn(u); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears the registry. It exists for tests that build their own unit
// lists.
func Reset() {
	registeredUnits = nil
}
