package transcoder

import (
	"strconv"
	"strings"
	"unsafe"

	"github.com/gomlx/tokenizers/errors"
)

// NewCString copies s into a NUL-terminated allocation. Text that contains
// a NUL byte cannot be represented and is rejected.
func NewCString(a Allocator, list *AllocationList, s string) (*byte, error) {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return nil, errors.Unrepresentable(errors.PhaseMarshal, nil,
			"text contains a NUL byte at offset "+strconv.Itoa(i))
	}
	size := uintptr(len(s) + 1)
	p, err := a.Alloc(size)
	if err != nil {
		return nil, err
	}
	list.Add(p, size)
	buf := unsafe.Slice((*byte)(p), len(s)+1)
	copy(buf, s)
	buf[len(s)] = 0
	return (*byte)(p), nil
}

// CStringLen returns the number of bytes before the terminating NUL.
func CStringLen(p *byte) int {
	if p == nil {
		return 0
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return n
}

// GoString copies a NUL-terminated string. A nil pointer yields "".
func GoString(p *byte) string {
	if p == nil {
		return ""
	}
	return string(unsafe.Slice(p, CStringLen(p)))
}

// FreeCString releases a string made by NewCString. Nil is a no-op.
func FreeCString(a Allocator, p *byte) {
	if p == nil {
		return
	}
	a.Free(unsafe.Pointer(p), uintptr(CStringLen(p)+1))
}

// ErrorString lowers an error message. NUL bytes in the message are escaped
// so the message itself is always representable.
func ErrorString(a Allocator, err error) (*byte, error) {
	msg := strings.ReplaceAll(err.Error(), "\x00", `\x00`)
	return NewCString(a, nil, msg)
}
