// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

package appengine

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/sourcegraph/go-diff/diff"
)

// printDiff writes a unified line diff of base and new as a single hunk.
func printDiff(w io.Writer, baseName, newName, base, new string) error {
	dmp := diffmatchpatch.New()
	b, n, lines := dmp.DiffLinesToChars(base, new)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(b, n, false), lines)

	h := &diff.Hunk{OrigStartLine: 1, NewStartLine: 1}
	var body strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			if !strings.HasSuffix(line, "\n") {
				line += "\n"
			}
			body.WriteString(prefix + line)
			if d.Type != diffmatchpatch.DiffInsert {
				h.OrigLines++
			}
			if d.Type != diffmatchpatch.DiffDelete {
				h.NewLines++
			}
		}
	}
	h.Body = []byte(body.String())

	out, err := diff.PrintFileDiff(&diff.FileDiff{OrigName: baseName, NewName: newName, Hunks: []*diff.Hunk{h}})
	if err != nil {
		return errors.Wrap(err, "print diff")
	}
	_, err = w.Write(out)
	return err
}
