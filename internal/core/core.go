package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/rafaeelricco/commit-gen/internal/config"
	"github.com/rafaeelricco/commit-gen/internal/gemini"
	"github.com/rafaeelricco/commit-gen/internal/git"
	"github.com/rafaeelricco/commit-gen/internal/prompt"
)

// State names a position in the review loop. Committed, Cancelled and
// Failed are terminal; Generating is the only state ever re-entered, via a
// Regenerate decision.
type State string

const (
	Collecting State = "collecting"
	Prompting  State = "prompting"
	Generating State = "generating"
	Reviewing  State = "reviewing"
	Committing State = "committing"
	Committed  State = "committed"
	Cancelled  State = "cancelled"
	Failed     State = "failed"
)

// Repository is the version-control collaborator: one read-only diff
// operation and one mutating commit operation.
type Repository interface {
	StagedDiff() (string, error)
	Commit(message string) (string, error)
}

// Generator produces text for a prompt. One call per generation attempt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Reviewer presents a candidate message and returns the user's decision.
type Reviewer interface {
	Review(message string) (Decision, error)
}

type DecisionKind int

const (
	DecisionAccept DecisionKind = iota
	DecisionEdit
	DecisionRegenerate
	DecisionCancel
)

// Decision is what the reviewer hands back. EditedText is only meaningful
// for DecisionEdit.
type Decision struct {
	Kind       DecisionKind
	EditedText string
}

// attempt holds one round of generation. Discarded when the loop ends.
type attempt struct {
	promptUsed  string
	rawResponse string
	message     string
}

type Loop struct {
	repo     Repository
	gen      Generator
	reviewer Reviewer
	conv     config.Convention
	template string
}

func NewLoop(repo Repository, gen Generator, reviewer Reviewer, cfg config.Config) *Loop {
	if repo == nil || gen == nil || reviewer == nil {
		panic("loop collaborators cannot be nil")
	}
	return &Loop{
		repo:     repo,
		gen:      gen,
		reviewer: reviewer,
		conv:     cfg.Convention,
		template: cfg.CustomTemplate,
	}
}

// Run drives Collecting → Prompting → Generating → Reviewing →
// (Committing | Cancelled | Failed). The repository is only mutated in
// Committing; config is never written here. Regenerations are unbounded,
// each one an independent Generator call over the same diff and prompt.
func (l *Loop) Run(ctx context.Context) Outcome {
	diff, err := l.repo.StagedDiff()
	if err != nil {
		return failure(err)
	}

	p, err := prompt.BuildCommit(diff, l.conv, l.template)
	if err != nil {
		return failure(err)
	}

	for {
		att, err := l.generate(ctx, p)
		if err != nil {
			return failure(err)
		}

		decision, err := l.reviewer.Review(att.message)
		if err != nil {
			return failure(fmt.Errorf("review failed: %w", err))
		}

		switch decision.Kind {
		case DecisionAccept:
			return l.commit(att.message)
		case DecisionEdit:
			return l.commit(decision.EditedText)
		case DecisionRegenerate:
			log.Debug().Msg("Regenerating commit message")
			continue
		case DecisionCancel:
			return Outcome{State: Cancelled}
		default:
			return failure(fmt.Errorf("unknown review decision %d", decision.Kind))
		}
	}
}

func (l *Loop) generate(ctx context.Context, p string) (*attempt, error) {
	raw, err := l.gen.Generate(ctx, p)
	if err != nil {
		return nil, err
	}
	return &attempt{promptUsed: p, rawResponse: raw, message: raw}, nil
}

func (l *Loop) commit(message string) Outcome {
	output, err := l.repo.Commit(message)
	if err != nil {
		return failure(err)
	}
	return Outcome{State: Committed, CommitMessage: message, GitOutput: output}
}

// FailureCategory lets scripting and tests tell failure classes apart
// without parsing messages.
type FailureCategory string

const (
	CategoryNone       FailureCategory = ""
	CategoryConfig     FailureCategory = "config"
	CategoryRepository FailureCategory = "repository"
	CategoryBackend    FailureCategory = "backend"
	CategoryCommit     FailureCategory = "commit"
	CategoryInternal   FailureCategory = "internal"
)

type Outcome struct {
	State         State
	CommitMessage string
	GitOutput     string
	Category      FailureCategory
	Err           error
}

func failure(err error) Outcome {
	return Outcome{State: Failed, Category: Classify(err), Err: err}
}

// Classify maps an error to its failure category.
func Classify(err error) FailureCategory {
	var (
		corruptCfg *config.CorruptConfigError
		validation *config.ValidationError
		commitErr  *git.CommitError
		authErr    *gemini.AuthError
		rateErr    *gemini.RateLimitError
		netErr     *gemini.NetworkError
		apiErr     *gemini.APIError
	)

	switch {
	case err == nil:
		return CategoryNone
	case errors.Is(err, config.ErrNotConfigured),
		errors.As(err, &corruptCfg),
		errors.As(err, &validation):
		return CategoryConfig
	case errors.Is(err, git.ErrNotARepository),
		errors.Is(err, git.ErrNoStagedChanges):
		return CategoryRepository
	case errors.As(err, &commitErr):
		return CategoryCommit
	case errors.Is(err, gemini.ErrEmptyResponse),
		errors.As(err, &authErr),
		errors.As(err, &rateErr),
		errors.As(err, &netErr),
		errors.As(err, &apiErr):
		return CategoryBackend
	default:
		return CategoryInternal
	}
}
