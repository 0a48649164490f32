package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/bosun-deploy/bosun/pkg/engine"
	"github.com/bosun-deploy/bosun/pkg/telemetry"
)

// progressObserver prints one line per completed step.
type progressObserver struct {
	out io.Writer
}

func newProgressObserver(out io.Writer) *progressObserver {
	return &progressObserver{out: out}
}

func (o *progressObserver) StepStarted(engine.Step) {}

func (o *progressObserver) StepCompleted(result engine.Result) {
	switch result.Status {
	case engine.ResultSucceeded:
		fmt.Fprintf(o.out, "  ok   %-40s %s (%s)\n", result.Component, result.Phase, result.Duration.Round(time.Millisecond))
	case engine.ResultSkipped:
		fmt.Fprintf(o.out, "  skip %-40s %s\n", result.Component, result.Phase)
	case engine.ResultFailed:
		fmt.Fprintf(o.out, "  FAIL %-40s %s: %s\n", result.Component, result.Phase, result.Error.Message)
	case engine.ResultNotAttempted:
		fmt.Fprintf(o.out, "  --   %-40s %s (not attempted)\n", result.Component, result.Phase)
	}
}

func (o *progressObserver) RunCompleted(*engine.Report) {}

// metricsObserver feeds step and run outcomes into Prometheus.
type metricsObserver struct {
	metrics   *telemetry.Metrics
	operation string
}

func newMetricsObserver(metrics *telemetry.Metrics, operation string) *metricsObserver {
	return &metricsObserver{metrics: metrics, operation: operation}
}

func (o *metricsObserver) StepStarted(engine.Step) {}

func (o *metricsObserver) StepCompleted(result engine.Result) {
	o.metrics.RecordStep(string(result.Phase), string(result.Status), result.Duration)
	if result.Error != nil {
		o.metrics.RecordError(string(result.Error.Class), result.Error.Code)
	}
}

func (o *metricsObserver) RunCompleted(report *engine.Report) {
	o.metrics.RecordRunCompleted(o.operation, string(report.Status), report.Duration)
	for _, rec := range []*engine.ProvisionRecord{report.Provision, report.Destroy} {
		if rec == nil {
			continue
		}
		o.metrics.RecordProvisionerCall(string(rec.Action), string(rec.Status), rec.Duration)
		if rec.Error != nil {
			o.metrics.RecordError(string(rec.Error.Class), rec.Error.Code)
		}
	}
}

// traceObserver maintains one run span with a child span per executed step.
// All callbacks arrive from the single traversal goroutine.
type traceObserver struct {
	tracer     *telemetry.Tracer
	ctx        context.Context
	deployment string
	operation  string

	runCtx   context.Context
	runSpan  trace.Span
	stepSpan trace.Span
}

func newTraceObserver(ctx context.Context, tracer *telemetry.Tracer, deployment, operation string) *traceObserver {
	return &traceObserver{
		tracer:     tracer,
		ctx:        ctx,
		deployment: deployment,
		operation:  operation,
	}
}

func (o *traceObserver) ensureRunSpan() {
	if o.runSpan == nil {
		o.runCtx, o.runSpan = o.tracer.StartRunSpan(o.ctx, "", o.deployment, o.operation)
	}
}

func (o *traceObserver) StepStarted(step engine.Step) {
	o.ensureRunSpan()
	_, o.stepSpan = o.tracer.StartStepSpan(o.runCtx, step.Path, string(step.Phase))
}

func (o *traceObserver) StepCompleted(result engine.Result) {
	// Skipped and not-attempted steps never opened a span.
	if o.stepSpan == nil {
		return
	}
	o.stepSpan.SetAttributes(telemetry.AttrStepStatus.String(string(result.Status)))
	if result.Error != nil {
		o.stepSpan.SetAttributes(
			telemetry.AttrErrorClass.String(string(result.Error.Class)),
			telemetry.AttrErrorCode.String(result.Error.Code),
		)
		telemetry.RecordError(o.stepSpan, result.Error)
	} else {
		telemetry.RecordSuccess(o.stepSpan)
	}
	o.stepSpan.End()
	o.stepSpan = nil
}

func (o *traceObserver) RunCompleted(report *engine.Report) {
	o.ensureRunSpan()
	o.runSpan.SetAttributes(
		telemetry.AttrRunID.String(report.RunID),
		telemetry.AttrRunStatus.String(string(report.Status)),
	)
	if failure := report.FirstFailure(); failure != nil {
		telemetry.RecordError(o.runSpan, failure.Error)
	} else if report.Status == engine.RunSuccess {
		telemetry.RecordSuccess(o.runSpan)
	}
	o.runSpan.End()
	o.runSpan = nil
}
