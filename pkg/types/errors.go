package types

import "fmt"

// ErrorCode is the stable numeric code of a lookup failure
type ErrorCode uint32

const (
	// CodeSegment is the block all lookup codes live in
	CodeSegment ErrorCode = 0x300

	CodeMethodNotFound   ErrorCode = CodeSegment | 0x01
	CodeClassNotFound    ErrorCode = CodeSegment | 0x02
	CodePropertyNotFound ErrorCode = CodeSegment | 0x03
	CodeFunctionNotFound ErrorCode = CodeSegment | 0x04
)

func (c ErrorCode) String() string {
	switch c {
	case CodeMethodNotFound:
		return "MethodNotFound"
	case CodeClassNotFound:
		return "ClassNotFound"
	case CodePropertyNotFound:
		return "PropertyNotFound"
	case CodeFunctionNotFound:
		return "FunctionNotFound"
	default:
		return fmt.Sprintf("ErrorCode(%#x)", uint32(c))
	}
}

// LookupError reports a declaration that could not be located
type LookupError struct {
	code    ErrorCode
	message string
}

var _ error = (*LookupError)(nil)

// Sentinels for errors.Is; any LookupError with the same code matches
var (
	ErrMethodNotFound   = &LookupError{code: CodeMethodNotFound, message: "method not found"}
	ErrClassNotFound    = &LookupError{code: CodeClassNotFound, message: "class not found"}
	ErrPropertyNotFound = &LookupError{code: CodePropertyNotFound, message: "property not found"}
	ErrFunctionNotFound = &LookupError{code: CodeFunctionNotFound, message: "function not found"}
)

func (err *LookupError) Error() string {
	return fmt.Sprintf("E%#x: %s", uint32(err.code), err.message)
}

// Code returns the stable numeric code
func (err *LookupError) Code() ErrorCode {
	return err.code
}

// Message returns the message naming the missing declaration
func (err *LookupError) Message() string {
	return err.message
}

// Is matches any LookupError carrying the same code
func (err *LookupError) Is(target error) bool {
	t, ok := target.(*LookupError)
	return ok && t.code == err.code
}

// MethodNotFound reports a missing method; name may be "T::m" or "m"
func MethodNotFound(name string) *LookupError {
	return &LookupError{code: CodeMethodNotFound, message: fmt.Sprintf("Method '%s' not found.", name)}
}

// ClassNotFound reports a missing type
func ClassNotFound(name string) *LookupError {
	return &LookupError{code: CodeClassNotFound, message: fmt.Sprintf("Class '%s' not found.", name)}
}

// PropertyNotFound reports a missing struct field
func PropertyNotFound(typeName, field string) *LookupError {
	return &LookupError{code: CodePropertyNotFound, message: fmt.Sprintf("Property '%s::%s' not found.", typeName, field)}
}

// FunctionNotFound reports a missing function
func FunctionNotFound(name string) *LookupError {
	return &LookupError{code: CodeFunctionNotFound, message: fmt.Sprintf("Function %s not found.", name)}
}
