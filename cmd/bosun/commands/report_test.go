package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bosun-deploy/bosun/pkg/engine"
)

func sampleReport() *engine.Report {
	return &engine.Report{
		RunID:      "run-1",
		Deployment: "prod",
		Operation:  engine.PhaseDeploy,
		Duration:   1500 * time.Millisecond,
		Results: []engine.Result{
			{Component: "api", Phase: engine.PhaseDeploy, Status: engine.ResultSucceeded, Duration: time.Second},
			{Component: "api/worker", Phase: engine.PhaseDeploy, Status: engine.ResultFailed,
				Error: engine.NewExecutionError("command exited with status 1", nil).
					WithCode(engine.ErrCodeHookFailed).
					WithComponent("api/worker").
					WithPhase(engine.PhaseDeploy)},
			{Component: "web", Phase: engine.PhaseDeploy, Status: engine.ResultNotAttempted},
		},
		Summary: engine.Summary{Total: 3, Succeeded: 1, Failed: 1, NotAttempted: 1},
		Status:  engine.RunPartialFailure,
	}
}

func TestPrintReportText(t *testing.T) {
	var buf bytes.Buffer
	if err := printReport(&buf, sampleReport(), false); err != nil {
		t.Fatalf("printReport failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"deploy prod -> partial-failure",
		"3 total, 1 succeeded, 0 skipped, 1 failed, 1 not attempted",
		"First failure: api/worker deploy",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPrintReportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printReport(&buf, sampleReport(), true); err != nil {
		t.Fatalf("printReport failed: %v", err)
	}

	var decoded engine.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("report output is not valid JSON: %v", err)
	}
	if decoded.RunID != "run-1" || decoded.Status != engine.RunPartialFailure {
		t.Errorf("unexpected decoded report: %+v", decoded)
	}
	if len(decoded.Results) != 3 {
		t.Errorf("expected 3 results, got %d", len(decoded.Results))
	}
}

func TestProgressObserverLines(t *testing.T) {
	var buf bytes.Buffer
	obs := newProgressObserver(&buf)

	obs.StepCompleted(engine.Result{Component: "api", Phase: engine.PhaseDeploy,
		Status: engine.ResultSucceeded, Duration: time.Second})
	obs.StepCompleted(engine.Result{Component: "web", Phase: engine.PhaseDeploy,
		Status: engine.ResultSkipped})
	obs.StepCompleted(engine.Result{Component: "db", Phase: engine.PhaseDeploy,
		Status: engine.ResultFailed,
		Error:  engine.NewExecutionError("boom", nil).WithCode(engine.ErrCodeHookFailed)})
	obs.StepCompleted(engine.Result{Component: "cache", Phase: engine.PhaseDeploy,
		Status: engine.ResultNotAttempted})

	lines := strings.Split(strings.Trim(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	for i, prefix := range []string{"  ok", "  skip", "  FAIL", "  --"} {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Errorf("line %d: expected prefix %q, got %q", i, prefix, lines[i])
		}
	}
}

func TestExitError(t *testing.T) {
	base := errors.New("underlying")
	err := &ExitError{Code: 1, Err: base}
	if err.Error() != "underlying" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("expected Unwrap to reach the underlying error")
	}

	bare := &ExitError{Code: 2}
	if bare.Error() != "exit code 2" {
		t.Errorf("unexpected message: %q", bare.Error())
	}

	var exitErr *ExitError
	if !errors.As(error(err), &exitErr) || exitErr.Code != 1 {
		t.Error("expected errors.As to recover the exit code")
	}
}
