// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package cmd

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/obolnetwork/starsign/app/log"
	"github.com/obolnetwork/starsign/app/promauto"
	"github.com/obolnetwork/starsign/app/tracer"
	"github.com/obolnetwork/starsign/app/version"
	"github.com/obolnetwork/starsign/app/z"
)

// telemetryConfig configures logging, metrics and tracing of a command.
type telemetryConfig struct {
	Log             log.Config
	MetricsTextfile string
	TracingStdout   bool
}

func bindTelemetryFlags(flags *pflag.FlagSet, config *telemetryConfig) {
	bindLogFlags(flags, &config.Log)
	flags.StringVar(&config.MetricsTextfile, "metrics-textfile", "", "Write prometheus metrics to this file on exit, for the node-exporter textfile collector.")
	flags.BoolVar(&config.TracingStdout, "tracing-stdout", false, "Write OpenTelemetry trace spans as JSON to stderr. Stdout is reserved for command output.")
}

// runWithTelemetry initialises logging and tracing, then runs fn within a command span.
// Metrics are written to the textfile after fn returns, even if it failed.
func runWithTelemetry(ctx context.Context, command string, config telemetryConfig, errOut io.Writer,
	flags *pflag.FlagSet, fn func(context.Context) error,
) (err error) {
	if err := log.InitLogger(config.Log); err != nil {
		return err
	}

	if config.TracingStdout {
		stopTracer, err := tracer.Init(tracer.WithStdOut(errOut))
		if err != nil {
			return err
		}
		defer func() {
			if err := stopTracer(context.Background()); err != nil {
				log.Warn(ctx, "Failed to stop tracer", err)
			}
		}()
	}

	if config.MetricsTextfile != "" {
		defer func() {
			werr := promauto.WriteTextfile(config.MetricsTextfile, prometheus.Labels{"command": command})
			if werr != nil && err == nil {
				err = werr
			} else if werr != nil {
				log.Warn(ctx, "Failed to write metrics textfile", werr)
			}
		}()
	}

	ctx = log.WithTopic(ctx, command)
	version.LogInfo(ctx, "Starsign starting")
	printFlags(ctx, flags)

	ctx, span := tracer.Start(ctx, "cmd/"+command)
	defer span.End()

	err = fn(ctx)
	if err != nil {
		span.RecordError(err)
		log.Debug(ctx, "Command failed", z.Str("command", command))
	}

	return err
}
