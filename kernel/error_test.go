package kernel

import "testing"

func TestErrorInterface(t *testing.T) {
	err := &Error{Module: "test", Message: "something went wrong", Code: CodeIO}
	if exp, got := "something went wrong", err.Error(); exp != got {
		t.Fatalf("expected Error() to return %q; got %q", exp, got)
	}
}

func TestCode(t *testing.T) {
	specs := []struct {
		err *Error
		exp int
	}{
		{nil, 0},
		{&Error{Module: "test", Message: "io", Code: CodeIO}, CodeIO},
		{&Error{Module: "test", Message: "oom", Code: CodeNoMemory}, CodeNoMemory},
		// An error without an explicit code must still surface as a failure.
		{&Error{Module: "test", Message: "no code"}, CodeInvalidParam},
		{&Error{Module: "test", Message: "bogus positive", Code: 1}, CodeInvalidParam},
	}

	for specIndex, spec := range specs {
		if got := Code(spec.err); got != spec.exp {
			t.Errorf("[spec %d] expected code %d; got %d", specIndex, spec.exp, got)
		}
	}
}
