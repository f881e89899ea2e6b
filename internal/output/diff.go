package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff is the unified diff between two renders of the same style.
type Diff struct {
	Unified string
	Added   int
	Removed int
}

// DiffOptions configures ComputeDiff.
type DiffOptions struct {
	OldLabel string
	NewLabel string
	Context  int
}

// DefaultDiffOptions labels the sides "previous" and "current" with three
// lines of context.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{
		OldLabel: "previous",
		NewLabel: "current",
		Context:  3,
	}
}

// ComputeDiff returns the unified diff from oldDoc to newDoc.
func ComputeDiff(oldDoc, newDoc string, opts DiffOptions) (*Diff, error) {
	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(oldDoc),
		B:        splitLines(newDoc),
		FromFile: opts.OldLabel,
		ToFile:   opts.NewLabel,
		Context:  opts.Context,
	})
	if err != nil {
		return nil, fmt.Errorf("computing diff: %w", err)
	}

	d := &Diff{Unified: unified}

	for _, line := range strings.Split(unified, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			d.Added++
		case strings.HasPrefix(line, "-"):
			d.Removed++
		}
	}

	return d, nil
}

// Empty reports whether both documents were identical.
func (d *Diff) Empty() bool {
	return d == nil || d.Unified == ""
}

// Summary returns a short "+a -r lines" description.
func (d *Diff) Summary() string {
	if d.Empty() {
		return "no changes"
	}

	return fmt.Sprintf("+%d -%d lines", d.Added, d.Removed)
}

// WriteTo writes the unified diff to w.
func (d *Diff) WriteTo(w io.Writer) (int64, error) {
	if d.Empty() {
		return 0, nil
	}

	n, err := io.WriteString(w, d.Unified)

	return int64(n), err
}

// splitLines keeps the trailing newline on each line as difflib expects.
func splitLines(s string) []string {
	if s == "" {
		return []string{""}
	}

	return strings.SplitAfter(s, "\n")
}
