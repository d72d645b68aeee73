package builder

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/oshokin/unipack/internal/config"
	"github.com/oshokin/unipack/internal/scheduler"
)

// printReport renders the end-of-build summary to standard output.
func printReport(cfg *config.EffectiveConfig, sessionID, sourcePath string, outcome *scheduler.Outcome) {
	renderReport(os.Stdout, cfg, sessionID, sourcePath, outcome)
}

// renderReport writes the per-format outcome table: one line per job with
// a colored status, plus the executable artifact and the session id.
func renderReport(w io.Writer, cfg *config.EffectiveConfig, sessionID, sourcePath string, outcome *scheduler.Outcome) {
	var (
		bold    = color.New(color.Bold).SprintFunc()
		green   = color.New(color.FgGreen).SprintFunc()
		red     = color.New(color.FgRed).SprintFunc()
		yellow  = color.New(color.FgYellow).SprintFunc()
		succeed = 0
	)

	fmt.Fprintf(w, "\n%s %s %s\n", bold(cfg.DisplayName), cfg.Version, bold("build report"))
	fmt.Fprintf(w, "  executable: %s\n", sourcePath)

	for _, result := range outcome.Results {
		switch result.Status {
		case scheduler.StatusSucceeded:
			succeed++

			fmt.Fprintf(w, "  %-18s %s  %s (%s)\n",
				result.Name, green("ok"), result.Artifact, result.Duration.Round(time.Millisecond))
		case scheduler.StatusFailed:
			fmt.Fprintf(w, "  %-18s %s  %v\n", result.Name, red("failed"), result.Err)
		case scheduler.StatusSkipped:
			fmt.Fprintf(w, "  %-18s %s\n", result.Name, yellow("skipped"))
		default:
			fmt.Fprintf(w, "  %-18s %s\n", result.Name, yellow(string(result.Status)))
		}
	}

	if len(outcome.Results) > 0 {
		fmt.Fprintf(w, "  %d of %d format(s) succeeded\n", succeed, len(outcome.Results))
	}

	fmt.Fprintf(w, "  session: %s\n", sessionID)
}
