package doctor

import (
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/rafaeelricco/commit-gen/internal/config"
	"github.com/rafaeelricco/commit-gen/internal/git"
)

// Check is one diagnostic result. Detail never contains the API key value.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// RunChecks inspects the environment the commit workflow depends on.
func RunChecks() []Check {
	return []Check{
		gitBinaryCheck(),
		repositoryCheck(),
		configCheck(),
		apiKeyCheck(),
	}
}

func gitBinaryCheck() Check {
	path, err := exec.LookPath("git")
	if err != nil {
		return Check{Name: "git binary", OK: false, Detail: "git not found on PATH"}
	}
	return Check{Name: "git binary", OK: true, Detail: path}
}

func repositoryCheck() Check {
	if _, err := git.StagedDiff(); errors.Is(err, git.ErrNotARepository) {
		return Check{Name: "repository", OK: false, Detail: "current directory is not a git work tree"}
	}
	return Check{Name: "repository", OK: true, Detail: "inside a git work tree"}
}

func configCheck() Check {
	path, pathErr := config.Path()
	if pathErr != nil {
		return Check{Name: "config file", OK: false, Detail: pathErr.Error()}
	}

	_, err := config.Load()
	switch {
	case err == nil:
		return Check{Name: "config file", OK: true, Detail: path}
	case errors.Is(err, config.ErrNotConfigured):
		return Check{Name: "config file", OK: false, Detail: "missing; run 'commit-gen setup'"}
	default:
		return Check{Name: "config file", OK: false, Detail: err.Error()}
	}
}

func apiKeyCheck() Check {
	cfg, loadErr := config.Load()
	detail := keySource(os.Getenv(config.EnvAPIKey) != "", loadErr == nil && cfg.APIKey != "")
	ok := detail != "not set"
	return Check{Name: "API key", OK: ok, Detail: detail}
}

// keySource describes where the key would come from, without echoing it.
// The environment variable wins over the config file.
func keySource(envSet, configSet bool) string {
	switch {
	case envSet:
		return "environment (" + config.EnvAPIKey + ")"
	case configSet:
		return "config file"
	default:
		return "not set"
	}
}

// Render writes the checks as a table.
func Render(w io.Writer, checks []Check) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Check", "Status", "Detail"})

	for _, c := range checks {
		status := text.FgGreen.Sprint("ok")
		if !c.OK {
			status = text.FgRed.Sprint("fail")
		}
		t.AppendRow(table.Row{c.Name, status, c.Detail})
	}

	t.Render()
}
