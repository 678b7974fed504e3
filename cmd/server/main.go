package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"studentcorner-backend/internal/captcha"
	"studentcorner-backend/internal/components/telemetry"
	"studentcorner-backend/internal/scrapers/studentcorner"
	"studentcorner-backend/internal/service"
	"studentcorner-backend/internal/session"
	"studentcorner-backend/lib/configutil"
	"studentcorner-backend/lib/serviceutil"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "Path to the configuration file.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	otel, output := InitTelemetry(ctx, *verbose)
	defer otel.Shutdown(context.Background())

	cfg, err := configutil.ReadConfigOver(*configPath, defaultConfig())
	if os.IsNotExist(err) {
		slog.Info("no config file found, using defaults", "path", *configPath)
		cfg = defaultConfig()
	} else if err != nil {
		serviceutil.Fatal("read config", err)
	}

	tel := telemetry.SlogAPI{}

	store := session.NewMemoryStore[*studentcorner.Session](cfg.Sessions.options(), tel)
	solver := captcha.NewSolver(
		captcha.NewOCRSpace(cfg.Ocr.options(), tel),
		captcha.SolverOptions{Length: cfg.Captcha.Length},
		tel,
	)
	svc := service.NewService(store, solver, service.Options{
		Portal:          cfg.Portal.options(output),
		CaptchaAttempts: cfg.Captcha.MaxAttempts,
	}, tel)

	serviceutil.StartHttpServer(ctx, cfg.Port, svc.Handler())
}
