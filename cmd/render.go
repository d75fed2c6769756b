package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"protovet/internal/reconcile"
)

// renderText prints the report grouped the way the reconciler ordered it:
// per message, in IDL declaration order.
func renderText(w io.Writer, r *reconcile.Report) {
	if len(r.Issues) == 0 {
		fmt.Fprintln(w, "OK: schema matches proto contracts")
		return
	}

	current := ""
	for _, issue := range r.Issues {
		if issue.Message != current {
			current = issue.Message
			header := current
			if issue.Table != "" {
				header += " -> " + issue.Table
			}
			fmt.Fprintf(w, "\n%s\n", header)
		}
		loc := issue.Field
		if issue.Column != "" && issue.Column != issue.Field {
			if loc != "" {
				loc += " / "
			}
			loc += issue.Column
		}
		if loc != "" {
			loc = " " + loc
		}
		fmt.Fprintf(w, "  [%s] %s:%s %s\n", issue.Severity, issue.Kind, loc, issue.Detail)
	}

	fmt.Fprintf(w, "\n%d error(s), %d warning(s)\n", r.Errors, r.Warnings)
}

func renderJSON(w io.Writer, r *reconcile.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
