package annex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// ItemTemplate places every imported enclosure under the podcast's
// directory, named after the sanitized item id.
const ItemTemplate = "${itemid}${extension}"

var commandContext = exec.CommandContext

type Archiver interface {
	Archive(ctx context.Context, feedURL, template string) error
}

// ArchiveError is returned when the archiver exits unsuccessfully.
type ArchiveError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ArchiveError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("archiver failed with exit code %d: %v", e.ExitCode, e.Err)
	}
	return fmt.Sprintf("archiver failed with exit code %d: %s", e.ExitCode, stderr)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// Template is the importfeed template for a podcast.
func Template(slug string) string {
	return slug + "/" + ItemTemplate
}

// GitAnnex archives feeds with `git-annex importfeed` run inside the
// annex repository.
type GitAnnex struct {
	binary string
	dir    string
}

func NewGitAnnex(binary, dir string) *GitAnnex {
	return &GitAnnex{
		binary: binary,
		dir:    dir,
	}
}

func (g *GitAnnex) Archive(ctx context.Context, feedURL, template string) error {
	cmd := commandContext(ctx, g.binary, "importfeed", feedURL, "--template", template) //nolint:gosec
	cmd.Dir = g.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("Running archiver", "binary", g.binary, "url", feedURL, "template", template)

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &ArchiveError{
			ExitCode: exitCode,
			Stderr:   stderr.String(),
			Err:      err,
		}
	}

	slog.Debug("Archiver finished", "url", feedURL, "output_bytes", stdout.Len())
	return nil
}
