package kernel

// Error describes an error raised by one of the hypervisor core modules.
// Errors must be declared as package-level variables that point to an Error
// value; the boot path runs before any dynamic allocator is guaranteed to
// exist so raising an error must not allocate.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message.
	Message string

	// Code holds the errno-style negative code that the boot protocol
	// surfaces to the host environment through its shared error channel.
	Code int
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Errno-style codes shared with the host environment. The boot error channel
// stores one of these values; zero means no error has been reported.
const (
	CodeIO           = -5
	CodeNoMemory     = -12
	CodeInvalidParam = -22
	CodeRange        = -34
)

// Code returns the error-channel representation of e: zero when e is nil and
// a negative code otherwise. Errors declared without an explicit code map to
// CodeInvalidParam so that a raised error can never be mistaken for success.
func Code(e *Error) int {
	if e == nil {
		return 0
	}

	if e.Code >= 0 {
		return CodeInvalidParam
	}

	return e.Code
}
