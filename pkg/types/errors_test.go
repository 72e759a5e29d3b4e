package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupError_Codes(t *testing.T) {
	tests := []struct {
		err      *LookupError
		sentinel *LookupError
		code     ErrorCode
		message  string
	}{
		{MethodNotFound("ABC::test"), ErrMethodNotFound, 0x301, "Method 'ABC::test' not found."},
		{ClassNotFound("ABC"), ErrClassNotFound, 0x302, "Class 'ABC' not found."},
		{PropertyNotFound("ABC", "gggx"), ErrPropertyNotFound, 0x303, "Property 'ABC::gggx' not found."},
		{FunctionNotFound("test"), ErrFunctionNotFound, 0x304, "Function test not found."},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code())
			assert.Equal(t, tt.message, tt.err.Message())
			assert.Equal(t, fmt.Sprintf("E%#x: %s", uint32(tt.code), tt.message), tt.err.Error())
			assert.True(t, errors.Is(tt.err, tt.sentinel))
			assert.Equal(t, CodeSegment, tt.code&0xF00)
		})
	}
}

func TestLookupError_IsDistinguishesCodes(t *testing.T) {
	err := MethodNotFound("x")
	assert.False(t, errors.Is(err, ErrClassNotFound))
	assert.False(t, errors.Is(err, errors.New("method not found")))

	wrapped := fmt.Errorf("lookup: %w", err)
	assert.True(t, errors.Is(wrapped, ErrMethodNotFound))

	var le *LookupError
	assert.True(t, errors.As(wrapped, &le))
	assert.Equal(t, CodeMethodNotFound, le.Code())
}

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "MethodNotFound", CodeMethodNotFound.String())
	assert.Equal(t, "FunctionNotFound", CodeFunctionNotFound.String())
	assert.Equal(t, "ErrorCode(0x399)", ErrorCode(0x399).String())
}
