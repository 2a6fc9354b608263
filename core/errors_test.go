package core

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodes(t *testing.T) {
	err := Error(EMALFORMED, "missing table %s", "cmap")
	assert.Equal(t, EMALFORMED, Code(err))
	assert.Equal(t, "missing table cmap", UserMessage(err))
	assert.True(t, errors.Is(err, ErrMalformed))
	assert.False(t, errors.Is(err, ErrStale))
}

func TestWrappedErrorKeepsCause(t *testing.T) {
	err := WrapError(io.ErrUnexpectedEOF, ESUBSET, "cannot write glyf")
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.True(t, errors.Is(err, ErrSubsetFailed))
	outer := fmt.Errorf("subsetting: %w", err)
	assert.Equal(t, ESUBSET, Code(outer))
	assert.True(t, errors.Is(outer, ErrSubsetFailed))
}

func TestCodeOfForeignAndNilErrors(t *testing.T) {
	assert.Equal(t, NOERROR, Code(nil))
	assert.Equal(t, EINTERNAL, Code(errors.New("boom")))
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "internal error", UserMessage(errors.New("boom")))
}

func TestErrorWithCodeOnNil(t *testing.T) {
	err := ErrorWithCode(nil, EEMPTY)
	assert.Equal(t, EEMPTY, Code(err))
	assert.True(t, errors.Is(err, ErrEmptyClosure))
}
