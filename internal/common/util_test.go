package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWipeByteArray(t *testing.T) {
	buf := []byte("hunter2")
	WipeByteArray(buf)
	assert.Equal(t, make([]byte, 7), buf)

	WipeByteArray(nil)
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	all := []error{
		ErrorNotFound, ErrorAlreadyExists, ErrorNotAuthorizedOrNotFound,
		ErrorInternal, ErrorUnauthorized, ErrorValidation, ErrInvalidToken,
	}
	for i := range all {
		for j := range all {
			if i != j {
				assert.False(t, errors.Is(all[i], all[j]), "%v must not match %v", all[i], all[j])
			}
		}
	}
}
