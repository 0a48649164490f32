package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bosun-deploy/bosun/pkg/declaration"
	"github.com/bosun-deploy/bosun/pkg/engine"
	"github.com/bosun-deploy/bosun/pkg/hooks"
	"github.com/bosun-deploy/bosun/pkg/policy"
	"github.com/bosun-deploy/bosun/pkg/telemetry"
	"github.com/bosun-deploy/bosun/pkg/terraform"
)

// cliVersion is set by Execute for telemetry identification.
var cliVersion = "dev"

// autoApprove controls the provisioner's -auto-approve flag; the commands
// that provision expose it.
var autoApprove = true

// runtime bundles the collaborators every command assembles from the global
// flags.
type runtime struct {
	logger      *telemetry.Logger
	metrics     *telemetry.Metrics
	tracer      *telemetry.Tracer
	policies    *policy.Engine
	loader      *declaration.Loader
	runner      *hooks.Runner
	provisioner *terraform.Provisioner
}

// newRuntime builds the runtime from the global flags.
func newRuntime() (*runtime, error) {
	level := "info"
	if verbose {
		level = "debug"
	}
	logger, err := telemetry.NewLogger(telemetry.LoggingConfig{
		Level:      level,
		Format:     logFormat,
		Output:     "stderr",
		TimeFormat: "rfc3339",
	})
	if err != nil {
		return nil, err
	}
	zlog := logger.Zerolog()
	log.Logger = zlog

	metrics, err := telemetry.NewMetrics(telemetry.MetricsConfig{
		Enabled:       metricsListen != "",
		ListenAddress: metricsListen,
		Path:          "/metrics",
		Namespace:     "bosun",
	})
	if err != nil {
		return nil, err
	}
	if metrics.Enabled() {
		if err := metrics.StartServer(zlog); err != nil {
			return nil, err
		}
	}

	tracer, err := telemetry.NewTracer(telemetry.TracingConfig{
		Enabled:            traceExporter != "",
		Exporter:           traceExporter,
		Endpoint:           traceEndpoint,
		SamplingRate:       1.0,
		MaxExportBatchSize: 512,
		ExportTimeout:      30 * time.Second,
		Insecure:           true,
	}, "bosun", cliVersion, "cli")
	if err != nil {
		return nil, err
	}

	var policies *policy.Engine
	if !noPolicy {
		policies, err = policy.NewEngine(zlog)
		if err != nil {
			return nil, err
		}
		if policyDir != "" {
			if err := policies.LoadDir(policyDir); err != nil {
				return nil, err
			}
		}
	}

	loader := declaration.NewLoader(zlog).WithBaseDir(targetDir)
	return &runtime{
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
		policies:    policies,
		loader:      loader,
		runner:      hooks.NewRunner(zlog),
		provisioner: terraform.New(zlog).WithAutoApprove(autoApprove),
	}, nil
}

// loadDeployment loads and validates the declaration, selects one deployment
// by name, checks its declared directories, and compiles it into the engine
// tree.
func (rt *runtime) loadDeployment(name string) (*engine.Deployment, error) {
	f, err := rt.loader.Load(declFile)
	if err != nil {
		return nil, err
	}
	decl := f.Find(name)
	if decl == nil {
		return nil, engine.NewConfigError(
			fmt.Sprintf("deployment %q not declared (have: %s)",
				name, strings.Join(f.Names(), ", ")), nil).
			WithCode(engine.ErrCodeNotFound)
	}
	if err := rt.loader.CheckPaths(decl); err != nil {
		return nil, err
	}
	return rt.loader.Build(decl, rt.runner)
}

// setupError reports a pre-traversal failure and maps it to exit code 2.
func setupError(err error) error {
	log.Error().Err(err).Msg("Run setup failed")
	return &ExitError{Code: 2, Err: err}
}

// executeRun is the shared path for the five lifecycle subcommands: load and
// validate the declaration, gate the run with policies, traverse, print the
// report, and map the run status to the exit code.
func executeRun(cmd *cobra.Command, op engine.Phase, deploymentName string, opts engine.Options) error {
	ctx := cmd.Context()

	rt, err := newRuntime()
	if err != nil {
		return setupError(err)
	}
	zlog := rt.logger.Zerolog()
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rt.tracer.Shutdown(flushCtx); err != nil {
			zlog.Warn().Err(err).Msg("Failed to flush traces")
		}
	}()

	d, err := rt.loadDeployment(deploymentName)
	if err != nil {
		return setupError(err)
	}

	if rt.policies != nil {
		decision, checkErr := rt.policies.Check(ctx, policy.BuildInput(d, op, opts))
		if decision != nil {
			for _, v := range decision.Violations {
				zlog.Warn().Str("policy", v.Policy).Str("severity", string(v.Severity)).
					Msg(v.Message)
			}
		}
		if checkErr != nil {
			return setupError(checkErr)
		}
	}

	observers := []engine.Observer{
		newMetricsObserver(rt.metrics, string(op)),
		newTraceObserver(ctx, rt.tracer, d.Name, string(op)),
	}
	if !jsonOutput {
		observers = append(observers, newProgressObserver(cmd.OutOrStdout()))
	}

	rt.metrics.RecordRunStarted(string(op))
	traverser := engine.NewTraverser(rt.provisioner, zlog, engine.CombineObservers(observers...))
	report, err := traverser.Run(ctx, d, op, opts)
	if err != nil {
		return setupError(err)
	}

	if err := printReport(cmd.OutOrStdout(), report, jsonOutput); err != nil {
		return setupError(err)
	}
	if report.Status != engine.RunSuccess {
		return &ExitError{Code: 1}
	}
	return nil
}
