package device

import "fmt"

// Native style failure codes.
const (
	CodeFail         int32 = -2147467259 // 0x80004005
	CodeOutOfMemory  int32 = -2147024882 // 0x8007000E
	CodeNotFound     int32 = -2147023728 // 0x80070490
	CodeDeviceGone   int32 = -2147023729 // 0x8007048F
	CodeAccessDenied int32 = -2147024891 // 0x80070005
)

// An Error is a failure reported by the enumeration machinery itself.
type Error struct {
	Op   string
	Code int32
}

// NewError returns an Error for the given operation and code.
func NewError(op string, code int32) *Error {
	return &Error{Op: op, Code: code}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed (0x%08X)", e.Op, uint32(e.Code))
}
