package commands

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"studentcorner-backend/internal/captcha"
	"studentcorner-backend/internal/components/telemetry"
	"studentcorner-backend/internal/samples"
	"studentcorner-backend/internal/scrapers/studentcorner"

	"github.com/spf13/cobra"
)

var (
	samplesDb    *string
	collectCount *int
	collectDir   *string
	collectLabel *bool
)

func init() {
	samplesDb = rootCmd.PersistentFlags().String("db", ".dev/captcha_samples.db", "The database holding captcha samples.")
	collectCount = collectCmd.Flags().IntP("count", "n", 10, "How many challenges to collect.")
	collectDir = collectCmd.Flags().String("dir", ".dev/captchas", "Where to write the collected images for viewing.")
	collectLabel = collectCmd.Flags().Bool("label", true, "Prompt for the code shown on every collected image.")
	rootCmd.AddCommand(collectCmd)
}

func openSamples() (samples.Store, error) {
	err := os.MkdirAll(filepath.Dir(*samplesDb), 0755)
	if err != nil {
		return samples.Store{}, err
	}
	return samples.Open(*samplesDb)
}

var collectCmd = &cobra.Command{
	Use:   "collect [-n <count>] [--dir <path>] [--label=false]",
	Short: "Collects captcha challenges from the portal into the sample database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := readConfig()
		store, err := openSamples()
		if err != nil {
			return err
		}
		defer store.Close()

		err = os.MkdirAll(*collectDir, 0755)
		if err != nil {
			return err
		}

		stdin := bufio.NewReader(os.Stdin)
		for i := 0; i < *collectCount; i++ {
			// a fresh session per challenge, the portal may repeat challenges within one
			session, err := studentcorner.NewSession(cfg.portalOptions(), telemetry.SlogAPI{})
			if err != nil {
				return err
			}
			err = session.Seed(cmd.Context())
			if err != nil {
				return err
			}
			image, err := session.Captcha(cmd.Context())
			if err != nil {
				return err
			}

			id, err := store.Add(cmd.Context(), image, time.Now())
			if err != nil {
				return err
			}
			path := filepath.Join(*collectDir, fmt.Sprintf("%d.png", id))
			err = os.WriteFile(path, image, 0644)
			if err != nil {
				return err
			}
			slog.Info("collected challenge", "id", id, "path", path)

			if !*collectLabel {
				continue
			}
			fmt.Printf("code shown in %s (empty to skip): ", path)
			line, err := stdin.ReadString('\n')
			if err != nil {
				return err
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			err = store.Label(cmd.Context(), id, line, captcha.DefaultLength)
			if err != nil {
				slog.Warn("sample left unlabelled", "id", id, "err", err)
			}
		}

		counts, err := store.Counts(cmd.Context())
		if err != nil {
			return err
		}
		slog.Info("sample database", "total", counts.Total, "labelled", counts.Labelled)
		return nil
	},
}
