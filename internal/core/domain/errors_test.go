package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesByCode(t *testing.T) {
	err := ErrPollNotFound.Withf("poll %q not found", "p9")
	assert.Equal(t, `poll "p9" not found`, err.Error())
	assert.ErrorIs(t, err, ErrPollNotFound)
	assert.NotErrorIs(t, err, ErrInvalidOption)

	wrapped := fmt.Errorf("voting: %w", err)
	assert.ErrorIs(t, wrapped, ErrPollNotFound)
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("disk on fire")))
	assert.Equal(t, KindUnsupported, KindOf(ErrNotSupported))
	assert.Equal(t, KindConflict, KindOf(ErrAlreadyInitialized))
}
