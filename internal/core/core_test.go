package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaeelricco/commit-gen/internal/config"
	"github.com/rafaeelricco/commit-gen/internal/gemini"
	"github.com/rafaeelricco/commit-gen/internal/git"
)

type fakeRepo struct {
	diff      string
	diffErr   error
	commitErr error
	commits   []string
}

func (r *fakeRepo) StagedDiff() (string, error) {
	return r.diff, r.diffErr
}

func (r *fakeRepo) Commit(message string) (string, error) {
	if r.commitErr != nil {
		return "", r.commitErr
	}
	r.commits = append(r.commits, message)
	return "[main abc1234] " + message, nil
}

type fakeGen struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (g *fakeGen) Generate(_ context.Context, prompt string) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

type scriptedReviewer struct {
	decisions []Decision
	seen      []string
}

func (r *scriptedReviewer) Review(message string) (Decision, error) {
	r.seen = append(r.seen, message)
	next := r.decisions[0]
	r.decisions = r.decisions[1:]
	return next, nil
}

func conventionalCfg() config.Config {
	return config.Config{APIKey: "k", Convention: config.Conventional}
}

func TestRunAcceptCommitsGeneratedMessage(t *testing.T) {
	repo := &fakeRepo{diff: "diff --git a/greeting.go b/greeting.go\n+package greeting\n"}
	gen := &fakeGen{response: "feat: add greeting module"}
	reviewer := &scriptedReviewer{decisions: []Decision{{Kind: DecisionAccept}}}

	outcome := NewLoop(repo, gen, reviewer, conventionalCfg()).Run(context.Background())

	assert.Equal(t, Committed, outcome.State)
	assert.Equal(t, "feat: add greeting module", outcome.CommitMessage)
	require.Len(t, repo.commits, 1)
	assert.Equal(t, "feat: add greeting module", repo.commits[0])
	assert.Equal(t, 1, gen.calls)
}

func TestRunNoStagedChangesNeverCallsGenerator(t *testing.T) {
	repo := &fakeRepo{diffErr: git.ErrNoStagedChanges}
	gen := &fakeGen{}
	reviewer := &scriptedReviewer{}

	outcome := NewLoop(repo, gen, reviewer, conventionalCfg()).Run(context.Background())

	assert.Equal(t, Failed, outcome.State)
	assert.Equal(t, CategoryRepository, outcome.Category)
	assert.ErrorIs(t, outcome.Err, git.ErrNoStagedChanges)
	assert.Zero(t, gen.calls)
	assert.Empty(t, repo.commits)
}

func TestRunNotARepository(t *testing.T) {
	repo := &fakeRepo{diffErr: git.ErrNotARepository}
	outcome := NewLoop(repo, &fakeGen{}, &scriptedReviewer{}, conventionalCfg()).Run(context.Background())

	assert.Equal(t, Failed, outcome.State)
	assert.Equal(t, CategoryRepository, outcome.Category)
}

func TestRunAuthErrorFailsWithBackendCategory(t *testing.T) {
	repo := &fakeRepo{diff: "some diff"}
	gen := &fakeGen{err: &gemini.AuthError{Status: 401}}

	outcome := NewLoop(repo, gen, &scriptedReviewer{}, conventionalCfg()).Run(context.Background())

	assert.Equal(t, Failed, outcome.State)
	assert.Equal(t, CategoryBackend, outcome.Category)
	var authErr *gemini.AuthError
	assert.ErrorAs(t, outcome.Err, &authErr)
	assert.Empty(t, repo.commits)
}

func TestRunEditCommitsUserTextVerbatim(t *testing.T) {
	repo := &fakeRepo{diff: "some diff"}
	gen := &fakeGen{response: "feat: whatever the model said"}
	reviewer := &scriptedReviewer{decisions: []Decision{
		{Kind: DecisionEdit, EditedText: "fix: correct typo"},
	}}

	outcome := NewLoop(repo, gen, reviewer, conventionalCfg()).Run(context.Background())

	assert.Equal(t, Committed, outcome.State)
	assert.Equal(t, "fix: correct typo", outcome.CommitMessage)
	require.Len(t, repo.commits, 1)
	assert.Equal(t, "fix: correct typo", repo.commits[0])
}

func TestRunRegenerateReusesSamePrompt(t *testing.T) {
	repo := &fakeRepo{diff: "stable diff"}
	gen := &fakeGen{response: "add thing"}
	reviewer := &scriptedReviewer{decisions: []Decision{
		{Kind: DecisionRegenerate},
		{Kind: DecisionRegenerate},
		{Kind: DecisionRegenerate},
		{Kind: DecisionAccept},
	}}

	outcome := NewLoop(repo, gen, reviewer, conventionalCfg()).Run(context.Background())

	assert.Equal(t, Committed, outcome.State)
	assert.Equal(t, 4, gen.calls)
	for _, p := range gen.prompts[1:] {
		assert.Equal(t, gen.prompts[0], p)
	}
	// One commit at the end, nothing mutated along the way.
	assert.Len(t, repo.commits, 1)
}

func TestRunCancelLeavesRepositoryUntouched(t *testing.T) {
	repo := &fakeRepo{diff: "some diff"}
	gen := &fakeGen{response: "add thing"}
	reviewer := &scriptedReviewer{decisions: []Decision{{Kind: DecisionCancel}}}

	outcome := NewLoop(repo, gen, reviewer, conventionalCfg()).Run(context.Background())

	assert.Equal(t, Cancelled, outcome.State)
	assert.Empty(t, repo.commits)
	assert.NoError(t, outcome.Err)
}

func TestRunCommitFailureSurfacesGitOutput(t *testing.T) {
	repo := &fakeRepo{
		diff:      "some diff",
		commitErr: &git.CommitError{Output: "pre-commit hook rejected"},
	}
	gen := &fakeGen{response: "add thing"}
	reviewer := &scriptedReviewer{decisions: []Decision{{Kind: DecisionAccept}}}

	outcome := NewLoop(repo, gen, reviewer, conventionalCfg()).Run(context.Background())

	assert.Equal(t, Failed, outcome.State)
	assert.Equal(t, CategoryCommit, outcome.Category)
	assert.Contains(t, outcome.Err.Error(), "pre-commit hook rejected")
}

func TestRunCustomConvention(t *testing.T) {
	repo := &fakeRepo{diff: "the diff body"}
	gen := &fakeGen{response: "custom message"}
	reviewer := &scriptedReviewer{decisions: []Decision{{Kind: DecisionAccept}}}
	cfg := config.Config{
		APIKey:         "k",
		Convention:     config.Custom,
		CustomTemplate: "Write a message for: {diff}",
	}

	outcome := NewLoop(repo, gen, reviewer, cfg).Run(context.Background())

	assert.Equal(t, Committed, outcome.State)
	require.Len(t, gen.prompts, 1)
	assert.Equal(t, "Write a message for: the diff body", gen.prompts[0])
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureCategory
	}{
		{"nil", nil, CategoryNone},
		{"not configured", config.ErrNotConfigured, CategoryConfig},
		{"corrupt config", &config.CorruptConfigError{Path: "p"}, CategoryConfig},
		{"no staged changes", git.ErrNoStagedChanges, CategoryRepository},
		{"not a repo", git.ErrNotARepository, CategoryRepository},
		{"commit rejected", &git.CommitError{Output: "x"}, CategoryCommit},
		{"auth", &gemini.AuthError{Status: 403}, CategoryBackend},
		{"rate limit", &gemini.RateLimitError{Status: 429}, CategoryBackend},
		{"empty response", gemini.ErrEmptyResponse, CategoryBackend},
		{"anything else", assert.AnError, CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
