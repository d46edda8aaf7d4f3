package git

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommitErrorKeepsOutputVerbatim(t *testing.T) {
	underlying := errors.New("exit status 1")
	err := &CommitError{Output: "pre-commit hook failed: lint errors", Err: underlying}

	assert.Contains(t, err.Error(), "pre-commit hook failed: lint errors")
	assert.ErrorIs(t, err, underlying)
}

func TestCommitErrorWithoutOutput(t *testing.T) {
	err := &CommitError{Err: errors.New("exit status 128")}
	assert.Contains(t, err.Error(), "exit status 128")
}
