package git

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	ErrNotARepository  = errors.New("not a git repository")
	ErrNoStagedChanges = errors.New("no staged changes")
)

// CommitError carries the underlying git output verbatim so hook rejections
// and "nothing to commit" messages reach the user unchanged.
type CommitError struct {
	Output string
	Err    error
}

func (e *CommitError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("git commit failed: %s", e.Output)
	}
	return fmt.Sprintf("git commit failed: %v", e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// StagedDiff returns the diff of the staged changes. An empty diff is
// reported as ErrNoStagedChanges so callers can tell the user to stage
// files; it is not the same condition as a failed collection.
func StagedDiff() (string, error) {
	if err := ensureRepository(); err != nil {
		return "", err
	}

	cmd := exec.Command("git", "diff", "--staged")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get staged diff: %w", err)
	}

	diff := string(output)
	if strings.TrimSpace(diff) == "" {
		return "", ErrNoStagedChanges
	}
	return diff, nil
}

func ensureRepository() error {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	if err := cmd.Run(); err != nil {
		return ErrNotARepository
	}
	return nil
}

// Commit creates a commit with the given message, byte for byte. The message
// goes through a temp file so multi-line messages survive intact.
func Commit(message string) (string, error) {
	tmp, err := os.CreateTemp("", "commit-gen-msg-*")
	if err != nil {
		return "", fmt.Errorf("failed to create commit message file: %w", err)
	}
	defer func() {
		if rmErr := os.Remove(tmp.Name()); rmErr != nil {
			log.Debug().Err(rmErr).Msg("Failed to remove commit message temp file")
		}
	}()

	if _, err := tmp.WriteString(message); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write commit message file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close commit message file: %w", err)
	}

	cmd := exec.Command("git", "commit", "-F", tmp.Name())
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", &CommitError{Output: strings.TrimSpace(string(output)), Err: err}
	}
	return strings.TrimSpace(string(output)), nil
}
