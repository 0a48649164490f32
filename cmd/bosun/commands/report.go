package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/bosun-deploy/bosun/pkg/engine"
)

// printReport renders the run report, either as indented JSON or as a
// human-readable summary.
func printReport(out io.Writer, report *engine.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(out, "\nRun %s: %s %s -> %s (%s)\n",
		report.RunID, report.Operation, report.Deployment,
		report.Status, report.Duration.Round(time.Millisecond))

	if report.Provision != nil {
		printProvisionRecord(out, report.Provision)
	}
	if report.Destroy != nil {
		printProvisionRecord(out, report.Destroy)
	}

	s := report.Summary
	fmt.Fprintf(out, "Steps: %d total, %d succeeded, %d skipped, %d failed, %d not attempted\n",
		s.Total, s.Succeeded, s.Skipped, s.Failed, s.NotAttempted)

	if failure := report.FirstFailure(); failure != nil {
		fmt.Fprintf(out, "First failure: %s %s: %s\n",
			failure.Component, failure.Phase, failure.Error.Error())
	}
	return nil
}

func printProvisionRecord(out io.Writer, rec *engine.ProvisionRecord) {
	if rec.Status == engine.ResultFailed {
		fmt.Fprintf(out, "Provisioner %s %s: failed: %s\n",
			rec.Action, rec.RootModule, rec.Error.Error())
		return
	}
	fmt.Fprintf(out, "Provisioner %s %s: %s (%s)\n",
		rec.Action, rec.RootModule, rec.Status, rec.Duration.Round(time.Millisecond))
}
