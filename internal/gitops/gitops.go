package gitops

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/invjournal/invjournal/internal/journal"
)

// Init initializes a new git repository at dir.
func Init(dir string) error {
	cmd := exec.Command("git", "init", "-q")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	return nil
}

// CommitAll stages all files and creates a commit. Returns the short commit hash.
func CommitAll(dir, message, authorName, authorEmail string) (string, error) {
	// Stage all files.
	add := exec.Command("git", "add", "-A")
	add.Dir = dir
	if out, err := add.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	// Commit as the configured identity so no global git config is needed.
	commit := exec.Command("git",
		"-c", "user.name="+authorName,
		"-c", "user.email="+authorEmail,
		"commit", "-q", "-m", message)
	commit.Dir = dir
	if out, err := commit.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	// Get short hash.
	rev := exec.Command("git", "rev-parse", "--short", "HEAD")
	rev.Dir = dir
	out, err := rev.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Available reports whether a git binary is on PATH.
func Available() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// Committer commits the journal directory after every saved change. It
// implements journal.Observer.
type Committer struct {
	Dir         string
	AuthorName  string
	AuthorEmail string
}

// Changed implements journal.Observer. Directories that are not git
// repositories are skipped.
func (c *Committer) Changed(ch journal.Change) error {
	return c.ChangedAll([]journal.Change{ch})
}

// ChangedAll implements journal.BatchObserver: one commit covers the save.
func (c *Committer) ChangedAll(changes []journal.Change) error {
	if len(changes) == 0 || !IsRepo(c.Dir) {
		return nil
	}
	_, err := CommitAll(c.Dir, CommitMessage(changes...), c.AuthorName, c.AuthorEmail)
	return err
}

// CommitMessage describes journal changes as a one-line commit subject.
func CommitMessage(changes ...journal.Change) string {
	if len(changes) == 0 {
		return "journal: no changes"
	}
	if len(changes) > 1 {
		return fmt.Sprintf("%s: %d entries", changes[0].Action, len(changes))
	}
	ch := changes[0]
	switch ch.Action {
	case journal.ActionAdd:
		return fmt.Sprintf("add: %s (%s)", ch.Entry.ID, ch.Entry.Category)
	default:
		return fmt.Sprintf("%s: %s", ch.Action, ch.Entry.ID)
	}
}
