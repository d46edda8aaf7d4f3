package prompt

import (
	"fmt"
	"strings"

	"github.com/rafaeelricco/commit-gen/internal/config"
)

// MaxDiffBytes caps the amount of diff text included in a prompt. The head
// of the diff is kept since it carries the most commit-message-relevant
// context; anything beyond the cap is replaced with TruncationMarker.
const MaxDiffBytes = 20000

// TruncationMarker is appended whenever diff content was dropped to respect
// MaxDiffBytes.
const TruncationMarker = "\n\n[diff truncated: remaining bytes omitted to bound the prompt size]"

const conventionalInstructions = `You are an expert software engineer writing commit messages from git diffs.

Follow the Conventional Commits specification:
• Start the title with the most fitting type prefix: feat:, fix:, refactor:, chore:, docs:, style:, test:, perf:, ci: or build:
• Keep the title concise (max 72 characters) and in the imperative mood
• For larger changes add a blank line after the title, then bullet points starting with "- "
• Describe what the change does, not how it is implemented
• Output only the commit message text, with no quotes, code fences or explanation

Here is the staged diff:

`

const imperativeInstructions = `You are an expert software engineer writing commit messages from git diffs.

Follow these rules:
• Use present-tense, imperative mood in the title (e.g. "add X", "fix Y", "refactor Z")
• Do NOT use conventional commit prefixes like feat:, fix: or chore:. Start directly with the verb
• Small changes get a single-line message; larger changes get a title, a blank line, then bullet points starting with "- "
• Avoid noise words like "minor update", ticket IDs and "WIP"
• Output only the commit message text, with no quotes, code fences or explanation

Here is the staged diff:

`

// BuildCommit renders the generation prompt for a staged diff under the
// given convention. The convention set is closed; an unknown tag here means
// a config invariant was broken upstream.
func BuildCommit(diff string, conv config.Convention, customTemplate string) (string, error) {
	diff = Truncate(diff)

	switch conv {
	case config.Conventional:
		return conventionalInstructions + diff, nil
	case config.Imperative:
		return imperativeInstructions + diff, nil
	case config.Custom:
		if !strings.Contains(customTemplate, config.DiffMarker) {
			return "", fmt.Errorf("custom template is missing the %s marker", config.DiffMarker)
		}
		return strings.ReplaceAll(customTemplate, config.DiffMarker, diff), nil
	default:
		return "", fmt.Errorf("unknown commit convention %q", conv)
	}
}

// Truncate keeps the head of the diff up to MaxDiffBytes and marks the cut.
func Truncate(diff string) string {
	if len(diff) <= MaxDiffBytes {
		return diff
	}
	return diff[:MaxDiffBytes] + TruncationMarker
}
