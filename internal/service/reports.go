package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"studentcorner-backend/internal/extract"
	"studentcorner-backend/internal/scrapers/studentcorner"
)

type Report struct {
	Selector int    `json:"selector"`
	Name     string `json:"name"`
	// Data is the structured form of the report, nil when it has none.
	Data     any    `json:"data,omitempty"`
	Html     string `json:"html"`
	Degraded bool   `json:"degraded"`
	Warning  string `json:"warning,omitempty"`
}

func upstream(err error) error {
	return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
}

// FetchReport fetches a report with the session of handle and runs it through
// its extractor. An invalid handle fails with ErrSessionInvalid before any
// request is made.
func (s Service) FetchReport(ctx context.Context, handle string, selector int, extra url.Values) (Report, error) {
	conn, err := s.store.Get(ctx, handle)
	if err != nil {
		return Report{}, ErrSessionInvalid
	}

	markup, err := conn.Fetch(ctx, selector, extra)
	if errors.Is(err, studentcorner.ErrLoginRedirect) {
		// the portal forgot this session, keeping the handle would only fail again
		_ = s.store.Delete(ctx, handle)
		return Report{}, fmt.Errorf("%w: %w", ErrSessionInvalid, err)
	}
	if err != nil {
		return Report{}, upstream(err)
	}

	info, _ := studentcorner.LookupReport(selector)
	result := extract.For(selector).Extract(markup)

	report := Report{
		Selector: selector,
		Name:     info.Name,
		Data:     result.Data,
		Html:     markup,
		Degraded: result.Degraded,
	}
	if result.Degraded {
		report.Warning = ErrExtractionDegraded.Error()
		s.tel.ReportWarning(report_fetch, ErrExtractionDegraded, selector)
	}
	return report, nil
}
