package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rafaeelricco/commit-gen/internal/config"
	"github.com/rafaeelricco/commit-gen/internal/core"
	"github.com/rafaeelricco/commit-gen/internal/doctor"
	"github.com/rafaeelricco/commit-gen/internal/gemini"
	"github.com/rafaeelricco/commit-gen/internal/git"
	"github.com/rafaeelricco/commit-gen/internal/translate"
	"github.com/rafaeelricco/commit-gen/internal/tui"
)

const version = "0.3.0"

// Exit codes let scripts distinguish a user cancel from a hard failure.
const (
	exitCommitted = 0
	exitFailed    = 1
	exitCancelled = 2
)

var rootCmd = &cobra.Command{
	Use:     "commit-gen",
	Short:   "AI assistant for commit messages and quick translations",
	Version: version,
}

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Generate a commit message from the staged diff and review it",
	Run:   runCommit,
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure the API key and commit convention",
	Run:   runSetup,
}

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate free text",
	Args:  cobra.MinimumNArgs(1),
	Run:   runTranslate,
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the environment the commit workflow depends on",
	Run: func(cmd *cobra.Command, args []string) {
		doctor.Render(os.Stdout, doctor.RunChecks())
	},
}

func main() {
	// A .env in the working directory may carry GOOGLE_API_KEY; absence is
	// not an error.
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if os.Getenv("DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	commitCmd.Flags().BoolP("force", "f", false, "commit the generated message without review")
	translateCmd.Flags().String("to", translate.DefaultTargetLanguage, "target language")

	rootCmd.AddCommand(commitCmd, setupCmd, translateCmd, doctorCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitFailed)
	}
}

// autoAccept is the non-interactive reviewer behind --force: the first
// candidate is committed as-is.
type autoAccept struct{}

func (autoAccept) Review(string) (core.Decision, error) {
	return core.Decision{Kind: core.DecisionAccept}, nil
}

// repository adapts the git package to the core.Repository interface.
type repository struct{}

func (repository) StagedDiff() (string, error)       { return git.StagedDiff() }
func (repository) Commit(msg string) (string, error) { return git.Commit(msg) }

func runCommit(cmd *cobra.Command, args []string) {
	cfg, err := loadWorkflowConfig()
	if err != nil {
		reportFailure(core.Classify(err), err)
		os.Exit(exitFailed)
	}

	var reviewer core.Reviewer = tui.MenuReviewer{}
	if force, _ := cmd.Flags().GetBool("force"); force {
		reviewer = autoAccept{}
	}

	gen := tui.SpinningGenerator{
		Inner: gemini.NewClient(cfg.APIKey),
		Label: "Generating commit message...",
	}

	outcome := core.NewLoop(repository{}, gen, reviewer, cfg).Run(cmd.Context())

	switch outcome.State {
	case core.Committed:
		if outcome.GitOutput != "" {
			fmt.Println(outcome.GitOutput)
		}
		color.Green("Commit created.")
		os.Exit(exitCommitted)
	case core.Cancelled:
		fmt.Println("Commit aborted.")
		os.Exit(exitCancelled)
	default:
		reportFailure(outcome.Category, outcome.Err)
		os.Exit(exitFailed)
	}
}

// loadWorkflowConfig resolves the API key (environment wins) and the
// convention. With GOOGLE_API_KEY set, the config file is optional and the
// convention defaults to conventional commits.
func loadWorkflowConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err == nil {
		if key := os.Getenv(config.EnvAPIKey); key != "" {
			cfg.APIKey = key
		}
		return cfg, nil
	}

	if errors.Is(err, config.ErrNotConfigured) {
		if key := os.Getenv(config.EnvAPIKey); key != "" {
			return config.Config{APIKey: key, Convention: config.Conventional}, nil
		}
	}
	return config.Config{}, err
}

func reportFailure(category core.FailureCategory, err error) {
	switch category {
	case core.CategoryRepository:
		switch {
		case errors.Is(err, git.ErrNoStagedChanges):
			fmt.Println("No staged changes found. Use 'git add <file>' to stage files before generating a commit.")
		case errors.Is(err, git.ErrNotARepository):
			fmt.Println("Not a git repository. Initialize with 'git init' or navigate to a git project.")
		default:
			color.Red("%v", err)
		}
	case core.CategoryConfig:
		color.Red("%v", err)
		fmt.Println("Run 'commit-gen setup' to configure the tool.")
	default:
		color.Red("%v", err)
	}
}

func runSetup(cmd *cobra.Command, args []string) {
	newGenerator := func(key string) core.Generator {
		return gemini.NewClient(key)
	}

	if err := tui.RunSetup(cmd.Context(), newGenerator); err != nil {
		if errors.Is(err, tui.ErrSetupCancelled) {
			fmt.Println("Setup cancelled.")
			os.Exit(exitCancelled)
		}
		color.Red("%v", err)
		os.Exit(exitFailed)
	}
}

func runTranslate(cmd *cobra.Command, args []string) {
	key, err := config.ResolveAPIKey()
	if err != nil {
		reportFailure(core.Classify(err), err)
		os.Exit(exitFailed)
	}

	target, _ := cmd.Flags().GetString("to")
	gen := tui.SpinningGenerator{
		Inner: gemini.NewClient(key),
		Label: "Translating...",
	}

	result, err := translate.Run(cmd.Context(), gen, strings.Join(args, " "), target)
	if err != nil {
		color.Red("%v", err)
		os.Exit(exitFailed)
	}
	fmt.Println(result)
}
