// Package kfmt implements the minimal, allocation-free printk facility used
// for boot diagnostics. Output produced before a console sink is installed
// accumulates in a ring buffer and is replayed into the sink once one
// becomes available.
package kfmt

import "io"

var (
	missingArg  = []byte("(MISSING)")
	badVerb     = []byte("%!(NOVERB)")
	badArgType  = []byte("%!(WRONGTYPE)")
	trueBytes   = []byte("true")
	falseBytes  = []byte("false")
	digitLower  = "0123456789abcdef"
	singleByte  = []byte{0}
	numScratch  [numScratchLen]byte
	earlyOutput ringBuffer
	outputSink  io.Writer
)

// numScratchLen is large enough for a 64-bit value in base 8 plus sign.
const numScratchLen = 24

// SetOutputSink installs w as the target for Printf output and replays any
// buffered early output into it. Passing nil reverts to early buffering.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyOutput)
	}
}

// GetOutputSink returns the Writer that Printf output currently goes to.
func GetOutputSink() io.Writer {
	if outputSink == nil {
		return &earlyOutput
	}
	return outputSink
}

// Printf formats its arguments and writes them to the active output sink.
//
// The supported verb subset is %s (string or byte slice), %d, %x and %o
// (any built-in integer type), %t (bool) and %c (byte or rune). A decimal
// width may precede the verb; %d and %s pad with spaces, a width with a
// leading zero pads numbers with zeroes. %x always zero-pads to the
// requested width.
func Printf(format string, args ...interface{}) {
	Fprintf(GetOutputSink(), format, args...)
}

// Fprintf behaves exactly like Printf but writes the formatted output to w.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		nextArg int
		fmtLen  = len(format)
	)

	for i := 0; i < fmtLen; i++ {
		ch := format[i]
		if ch != '%' {
			writeByte(w, ch)
			continue
		}

		// Scan the optional zero flag and width.
		var (
			width   int
			zeroPad bool
		)
		i++
		if i < fmtLen && format[i] == '0' {
			zeroPad = true
			i++
		}
		for i < fmtLen && format[i] >= '0' && format[i] <= '9' {
			width = width*10 + int(format[i]-'0')
			i++
		}

		if i >= fmtLen {
			return
		}

		verb := format[i]
		if verb == '%' {
			writeByte(w, '%')
			continue
		}

		if nextArg >= len(args) {
			w.Write(missingArg)
			continue
		}
		arg := args[nextArg]
		nextArg++

		switch verb {
		case 's':
			fmtString(w, arg, width)
		case 'd':
			fmtInt(w, arg, 10, width, zeroPad)
		case 'x':
			fmtInt(w, arg, 16, width, true)
		case 'o':
			fmtInt(w, arg, 8, width, zeroPad)
		case 't':
			fmtBool(w, arg)
		case 'c':
			fmtChar(w, arg)
		default:
			w.Write(badVerb)
		}
	}
}

func writeByte(w io.Writer, b byte) {
	singleByte[0] = b
	w.Write(singleByte)
}

func fmtString(w io.Writer, arg interface{}, width int) {
	switch v := arg.(type) {
	case string:
		for pad := width - len(v); pad > 0; pad-- {
			writeByte(w, ' ')
		}
		// Write byte by byte; slicing the string would allocate.
		for i := 0; i < len(v); i++ {
			writeByte(w, v[i])
		}
	case []byte:
		for pad := width - len(v); pad > 0; pad-- {
			writeByte(w, ' ')
		}
		w.Write(v)
	default:
		w.Write(badArgType)
	}
}

func fmtBool(w io.Writer, arg interface{}) {
	switch v := arg.(type) {
	case bool:
		if v {
			w.Write(trueBytes)
		} else {
			w.Write(falseBytes)
		}
	default:
		w.Write(badArgType)
	}
}

func fmtChar(w io.Writer, arg interface{}) {
	switch v := arg.(type) {
	case byte:
		writeByte(w, v)
	case rune:
		writeByte(w, byte(v))
	default:
		w.Write(badArgType)
	}
}

func fmtInt(w io.Writer, arg interface{}, base, width int, zeroPad bool) {
	var (
		val      uint64
		negative bool
	)

	switch v := arg.(type) {
	case int:
		val, negative = abs(int64(v))
	case int8:
		val, negative = abs(int64(v))
	case int16:
		val, negative = abs(int64(v))
	case int32:
		val, negative = abs(int64(v))
	case int64:
		val, negative = abs(v)
	case uint:
		val = uint64(v)
	case uint8:
		val = uint64(v)
	case uint16:
		val = uint64(v)
	case uint32:
		val = uint64(v)
	case uint64:
		val = v
	case uintptr:
		val = uint64(v)
	default:
		w.Write(badArgType)
		return
	}

	// Generate the digits in reverse into the scratch buffer.
	digits := 0
	for {
		numScratch[digits] = digitLower[val%uint64(base)]
		digits++
		val /= uint64(base)
		if val == 0 {
			break
		}
	}

	padLen := width - digits
	if negative {
		padLen--
	}

	padByte := byte(' ')
	if zeroPad {
		padByte = '0'
	}

	// A negative sign precedes zero padding but follows space padding.
	if negative && zeroPad {
		writeByte(w, '-')
	}
	for ; padLen > 0; padLen-- {
		writeByte(w, padByte)
	}
	if negative && !zeroPad {
		writeByte(w, '-')
	}

	for digits > 0 {
		digits--
		writeByte(w, numScratch[digits])
	}
}

func abs(v int64) (uint64, bool) {
	if v < 0 {
		return uint64(-v), true
	}
	return uint64(v), false
}
