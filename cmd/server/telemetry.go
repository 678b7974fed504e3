package main

import (
	"context"
	"log/slog"

	"studentcorner-backend/internal/components/telemetry"
	"studentcorner-backend/lib/serviceutil"
)

// InitTelemetry sets up logging and otel export, the returned output is only
// set when verbose and dumps every portal http message under .dev/resty.
func InitTelemetry(ctx context.Context, verbose bool) (telemetry.Telemetry, telemetry.InstrumentOutput) {
	telemetry.InitSlog(verbose)

	t, err := telemetry.SetupFromEnv(ctx, "studentcorner")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	telemetry.InstrumentPerfStats(ctx)

	if !verbose {
		return t, nil
	}
	slog.DebugContext(ctx, "verbose logging enabled")

	output, err := telemetry.NewFilesystemOutput(".dev/resty/studentcorner")
	if err != nil {
		slog.Warn("http message dumps disabled", "err", err)
		return t, nil
	}
	return t, output
}
