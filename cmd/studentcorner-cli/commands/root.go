package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"studentcorner-backend/internal/captcha"
	"studentcorner-backend/internal/components/telemetry"
	"studentcorner-backend/internal/scrapers/studentcorner"
	"studentcorner-backend/lib/configutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var verbose *bool

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging.")
}

var rootCmd = &cobra.Command{
	Use:   "studentcorner-cli",
	Short: "studentcorner-cli is a CLI for testing the captcha solver and the portal scraper.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Config is read from config.json5 (and config.local.json5) in the working
// directory, every field is optional except for the ones a command needs.
type Config struct {
	Username string `json:"username"`
	Password string `json:"password"`
	BaseUrl  string `json:"base_url"`
	Ocr      struct {
		Endpoint string `json:"endpoint"`
		ApiKey   string `json:"api_key"`
	} `json:"ocr"`
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "failed to read config:", err)
		os.Exit(1)
	}
	return cfg
}

func (c Config) portalOptions() studentcorner.Options {
	return studentcorner.Options{BaseUrl: c.BaseUrl}
}

func (c Config) solver(tel telemetry.API) captcha.Solver {
	ocr := captcha.NewOCRSpace(captcha.OCRSpaceOptions{
		Endpoint: c.Ocr.Endpoint,
		ApiKey:   c.Ocr.ApiKey,
		Timeout:  30 * time.Second,
	}, tel)
	return captcha.NewSolver(ocr, captcha.SolverOptions{}, tel)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
