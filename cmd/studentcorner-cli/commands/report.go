package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"studentcorner-backend/internal/components/telemetry"
	"studentcorner-backend/internal/scrapers/studentcorner"
	"studentcorner-backend/internal/service"
	"studentcorner-backend/internal/session"

	"github.com/antzucaro/matchr"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// reports whose name or route score below this are not considered a match
const minimumSimilarity = 0.7

var (
	reportHtml *bool
	reportCode *string
)

func init() {
	reportHtml = reportCmd.Flags().Bool("html", false, "Print the raw markup instead of the structured data.")
	reportCode = reportCmd.Flags().String("captcha", "", "Solve the challenge yourself instead of using OCR, the image is written to .dev/challenge.png.")
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(reportsCmd)
}

// resolveReport accepts a selector or something close to a report's name or
// route, ex. "attendance" or "student/cgpa".
func resolveReport(query string) (studentcorner.ReportInfo, error) {
	selector, err := strconv.Atoi(query)
	if err == nil {
		info, _ := studentcorner.LookupReport(selector)
		return info, nil
	}

	query = strings.ToLower(query)
	var best studentcorner.ReportInfo
	bestScore := 0.0
	for _, info := range studentcorner.Reports {
		candidates := []string{
			strings.ToLower(info.Name),
			info.Route,
			info.Route[strings.LastIndex(info.Route, "/")+1:],
		}
		for _, candidate := range candidates {
			score := matchr.JaroWinkler(query, candidate, false)
			if score > bestScore {
				best = info
				bestScore = score
			}
		}
	}
	if bestScore < minimumSimilarity {
		return studentcorner.ReportInfo{}, fmt.Errorf("no report resembles %q", query)
	}
	slog.Debug("resolved report", "query", query, "report", best.Name, "similarity", bestScore)
	return best, nil
}

func login(ctx context.Context, cfg Config, svc service.Service) (string, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return "", fmt.Errorf("username and password must be set in config.json5")
	}

	req := service.LoginRequest{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	if *reportCode == "-" {
		challenge, err := svc.BeginChallenge(ctx)
		if err != nil {
			return "", err
		}
		err = os.WriteFile(".dev/challenge.png", challenge.Image, 0644)
		if err != nil {
			return "", err
		}
		fmt.Print("code shown in .dev/challenge.png: ")
		_, err = fmt.Scanln(&req.Captcha)
		if err != nil {
			return "", err
		}
		req.Handle = challenge.Handle
	} else {
		req.Captcha = *reportCode
	}

	result, err := svc.Login(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", result.Message, err)
	}
	slog.Info(result.Message)
	return result.Handle, nil
}

var reportCmd = &cobra.Command{
	Use:   "report <selector|name> [--html] [--captcha <code>|-]",
	Short: "Logs in with the credentials in config.json5 and prints a report.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := resolveReport(args[0])
		if err != nil {
			return err
		}
		cfg := readConfig()
		tel := telemetry.SlogAPI{}

		err = os.MkdirAll(".dev", 0755)
		if err != nil {
			return err
		}

		store := session.NewMemoryStore[*studentcorner.Session](session.MemoryStoreOptions{}, tel)
		svc := service.NewService(store, cfg.solver(tel), service.Options{
			Portal: cfg.portalOptions(),
		}, tel)

		handle, err := login(cmd.Context(), cfg, svc)
		if err != nil {
			return err
		}
		defer svc.Logout(context.Background(), handle)

		report, err := svc.FetchReport(cmd.Context(), handle, info.Selector, nil)
		if err != nil {
			return err
		}
		if report.Degraded {
			slog.Warn(report.Warning, "report", report.Name)
		}

		if *reportHtml || report.Data == nil {
			fmt.Println(report.Html)
			return nil
		}
		encoded, err := json.MarshalIndent(report.Data, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
		return nil
	},
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Lists the reports known to exist on the portal.",
	Run: func(cmd *cobra.Command, args []string) {
		t := newTable()
		t.AppendHeader(table.Row{"Selector", "Name", "Route", "Portal page"})
		for _, info := range studentcorner.Reports {
			t.AppendRow(table.Row{info.Selector, info.Name, "/api/" + info.Route, info.Path})
		}
		t.SortBy([]table.SortBy{{Name: "Selector", Mode: table.AscNumeric}})
		t.Render()
	},
}
