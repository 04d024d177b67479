// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

// hawk-demo is a reference producer that exercises the full client
// surface: structured logs, metric points, spans, progress tracking,
// a live dashboard, a config panel, and a tamper-evident audit log.
// It emits hawk envelopes as NDJSON to stdout (or --output) so a
// consumer, or a plain `jq`, can watch the stream.
//
// Useful both as an end-to-end smoke test and as living documentation
// of the emission shapes each API produces.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/hawk-tui/hawk-go/audit"
	"github.com/hawk-tui/hawk-go/confpanel"
	"github.com/hawk-tui/hawk-go/dashboard"
	"github.com/hawk-tui/hawk-go/lib/clock"
	"github.com/hawk-tui/hawk-go/lib/version"
	"github.com/hawk-tui/hawk-go/progress"
	"github.com/hawk-tui/hawk-go/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		appName     string
		outputPath  string
		capturePath string
		compression string
		auditPath   string
		duration    time.Duration
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("hawk-demo", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a hawk options YAML file")
	flagSet.StringVar(&appName, "app-name", "hawk-demo", "application name stamped into envelope metadata")
	flagSet.StringVar(&outputPath, "output", "", "append telemetry NDJSON to this file instead of stdout")
	flagSet.StringVar(&capturePath, "capture", "", "also record the session to this capture file")
	flagSet.StringVar(&compression, "compression", "zstd", "capture compression: none, lz4, or zstd")
	flagSet.StringVar(&auditPath, "audit", "", "append audit records to this file (default: skip the audit demo)")
	flagSet.DurationVar(&duration, "duration", 10*time.Second, "how long the demo workload runs")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Printf("hawk-demo %s\n", version.Info())
		return nil
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	opts, err := loadOptions(configPath, appName, outputPath, capturePath, compression)
	if err != nil {
		return err
	}
	opts.Logger = newDiagnosticLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := telemetry.New(opts)
	if err != nil {
		return err
	}
	defer client.Shutdown()

	if err := runWorkload(ctx, client, auditPath, duration); err != nil {
		return err
	}

	stats := client.Stats()
	fmt.Fprintf(os.Stderr, "session %s: flushed=%d failed=%d dropped=%d rejected=%d\n",
		client.SessionID(), stats.Flushed, stats.Failed, stats.Dropped, stats.Rejected)
	return nil
}

// loadOptions builds client options from the YAML file (when given)
// with command-line flags layered on top.
func loadOptions(configPath, appName, outputPath, capturePath, compression string) (telemetry.Options, error) {
	var opts telemetry.Options
	var err error
	if configPath != "" {
		opts, err = telemetry.LoadOptions(configPath)
		if err != nil {
			return telemetry.Options{}, err
		}
	} else {
		opts = telemetry.NewOptions(appName)
	}
	if appName != "" {
		opts.AppName = appName
	}
	if capturePath != "" {
		if _, err := telemetry.ParseCompression(compression); err != nil {
			return telemetry.Options{}, err
		}
		opts.CapturePath = capturePath
		opts.CaptureCompression = compression
	}
	if outputPath != "" {
		sink, err := telemetry.NewFileSink(outputPath)
		if err != nil {
			return telemetry.Options{}, err
		}
		opts.Sink = sink
	}
	return opts, nil
}

// newDiagnosticLogger builds the logger for the client's own
// diagnostics (drops, sink failures). Text when stderr is a terminal,
// JSON when piped.
func newDiagnosticLogger() *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: slog.LevelInfo}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

// runWorkload drives a synthetic deployment pipeline through every
// emission surface until the duration elapses or the context is
// cancelled.
func runWorkload(ctx context.Context, client *telemetry.Client, auditPath string, duration time.Duration) error {
	client.Event("app_started", "hawk-demo started", &telemetry.EventFields{
		Severity: telemetry.SeveritySuccess,
		Data:     map[string]any{"version": version.Short(), "duration": duration.String()},
	})

	tracker := progress.NewTracker(client, clock.Real())
	panel := newDemoPanel(client)

	var requestCount atomic.Int64
	board := newDemoDashboard(client, &requestCount)
	defer board.Shutdown()

	var auditLog *audit.Logger
	if auditPath != "" {
		var err error
		auditLog, err = audit.New(auditPath, client, clock.Real())
		if err != nil {
			return err
		}
		defer auditLog.Close()
		if _, err := auditLog.LogEvent("session_start", map[string]any{"app": "hawk-demo"}); err != nil {
			return err
		}
	}

	// A config change mid-run shows the update envelope and the
	// on-change callback path.
	panel.OnChange("worker_count", func(key string, oldValue, newValue any) {
		client.Info(fmt.Sprintf("config %s changed", key), &telemetry.LogFields{
			Component: "config",
			Context:   map[string]any{"old": oldValue, "new": newValue},
		})
	})

	deadline := time.After(duration)
	round := 0
	for {
		select {
		case <-ctx.Done():
			client.Warn("demo interrupted", &telemetry.LogFields{Component: "main"})
			return nil
		case <-deadline:
			client.Success("demo complete", &telemetry.LogFields{
				Component: "main",
				Context:   map[string]any{"rounds": round},
			})
			if auditLog != nil {
				if _, err := auditLog.LogEvent("session_end", map[string]any{"rounds": round}); err != nil {
					return err
				}
				report, err := auditLog.VerifyIntegrity()
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "audit integrity: %d/%d records verified\n",
					report.Verified, report.Total())
			}
			return nil
		default:
		}

		round++
		runDeployment(client, tracker, round)
		requestCount.Add(int64(10 + rand.Intn(40)))

		if round == 3 {
			if ok, err := panel.SetValue("worker_count", 8); !ok {
				client.Error("config update rejected", &telemetry.LogFields{
					Component: "config",
					Context:   map[string]any{"error": err.Error()},
				})
			}
			if auditLog != nil {
				if _, err := auditLog.LogConfigChange("demo", "worker_count", 4, 8); err != nil {
					return err
				}
				if _, err := auditLog.LogAccess("demo", "deploy-pipeline", "scale", "granted", nil); err != nil {
					return err
				}
				if _, err := auditLog.LogCommand("demo", "scale", []string{"--workers", "8"}, "ok", ""); err != nil {
					return err
				}
			}
		}

		time.Sleep(500 * time.Millisecond)
	}
}

// runDeployment simulates one deploy: a span wrapping a tracked
// multi-step operation, with metrics along the way.
func runDeployment(client *telemetry.Client, tracker *progress.Tracker, round int) {
	span := client.StartSpan(fmt.Sprintf("deploy_%d", round), "deployer")

	op := tracker.Start(fmt.Sprintf("deploy_%d", round), fmt.Sprintf("Deploying build #%d", round), 5, &progress.StartOptions{Unit: "steps"})
	steps := []string{"fetch", "build", "test", "push", "activate"}
	for i, step := range steps {
		op.Update(float64(i+1), step)
		client.Gauge("deploy.step_latency", 20+rand.Float64()*80, &telemetry.MetricFields{
			Unit:      "ms",
			Component: "deployer",
			Tags:      map[string]any{"step": step},
		})
		time.Sleep(50 * time.Millisecond)
	}
	op.Complete(true, "deployed")

	client.Counter("deploy.total", 1, &telemetry.MetricFields{Component: "deployer"})
	span.End(nil)
}

// newDemoPanel declares the runtime-tunable settings the demo exposes.
func newDemoPanel(client *telemetry.Client) *confpanel.Panel {
	panel := confpanel.New("Demo Settings", client)
	panel.AddField(confpanel.Field{
		Key:         "worker_count",
		Type:        telemetry.FieldInteger,
		Default:     4,
		Min:         confpanel.Float64(1),
		Max:         confpanel.Float64(64),
		Description: "Parallel deploy workers",
		Category:    "Performance",
	})
	panel.AddField(confpanel.Field{
		Key:         "log_level",
		Type:        telemetry.FieldEnum,
		Default:     "info",
		Options:     []string{"debug", "info", "warn", "error"},
		Description: "Minimum level forwarded to the consumer",
		Category:    "Logging",
	})
	panel.AddField(confpanel.Field{
		Key:         "dry_run",
		Type:        telemetry.FieldBoolean,
		Default:     false,
		Description: "Log deploy actions without executing them",
		Category:    "Safety",
	})
	return panel
}

// newDemoDashboard wires a small widget grid over the workload's
// counters. Auto-layout places the widgets; refresh cadences are
// deliberately varied.
func newDemoDashboard(client *telemetry.Client, requests *atomic.Int64) *dashboard.Dashboard {
	board := dashboard.New("ops", client, clock.Real())
	board.AddMetric("request_rate", "Requests", "req", func() (float64, error) {
		return float64(requests.Load()), nil
	}, &dashboard.WidgetOptions{Refresh: 2 * time.Second, Width: 4, Height: 3})
	board.AddStatus("services", "Service Health", func() (map[string]any, error) {
		return map[string]any{
			"api":      "healthy",
			"database": "healthy",
			"cache":    "degraded",
		}, nil
	}, &dashboard.WidgetOptions{Refresh: 5 * time.Second, Width: 4, Height: 3})
	board.AddChart("latency", "Deploy Latency", "line", func() (map[string]any, error) {
		points := make([]float64, 8)
		for i := range points {
			points[i] = 20 + rand.Float64()*80
		}
		return map[string]any{"series": points, "unit": "ms"}, nil
	}, &dashboard.WidgetOptions{Refresh: 3 * time.Second, Width: 4, Height: 3})
	return board
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `hawk-demo — reference producer for the hawk telemetry protocol.

Runs a synthetic deployment workload and emits every envelope kind the
client supports: logs, metrics, spans, progress updates, dashboard
definitions and data, config panel definitions and updates, and audit
event mirrors. Envelopes are written as NDJSON to stdout unless
--output names a file.

Usage:
  hawk-demo [flags]

Flags:
%s`, flagSet.FlagUsages())
}
