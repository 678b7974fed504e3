// Package service is the caller-facing side of the proxy: it owns the session
// store, drives logins and relays reports through the extractors.
package service

import (
	"context"

	"studentcorner-backend/internal/captcha"
	"studentcorner-backend/internal/components/assert"
	"studentcorner-backend/internal/components/telemetry"
	"studentcorner-backend/internal/scrapers/studentcorner"
	"studentcorner-backend/internal/session"
)

const (
	report_challenge = "challenge"
	report_login     = "login"
	report_fetch     = "fetch"
	report_logout    = "logout"
)

// maxCaptchaAttempts caps Options.CaptchaAttempts so that a login never
// waits on more than this many OCR round-trips.
const maxCaptchaAttempts = 3

// CaptchaSolver is implemented by captcha.Solver.
//
// note: fault injection point
type CaptchaSolver interface {
	Solve(ctx context.Context, raw []byte) captcha.Solution
}

type Options struct {
	Portal studentcorner.Options
	// CaptchaAttempts is how many challenges are fetched and solved before
	// an automatic login gives up, defaults to 1.
	CaptchaAttempts int
	// Classifier defaults to studentcorner.DefaultClassifier.
	Classifier studentcorner.LoginClassifier
}

type Service struct {
	store      session.Store[*studentcorner.Session]
	solver     CaptchaSolver
	classifier studentcorner.LoginClassifier
	portal     studentcorner.Options
	attempts   int
	tel        telemetry.API
}

func NewService(
	store session.Store[*studentcorner.Session],
	solver CaptchaSolver,
	opts Options,
	tel telemetry.API,
) Service {
	assert.NotNil(store, "store")
	assert.NotNil(solver, "solver")
	assert.NotNil(tel, "tel")

	if opts.CaptchaAttempts <= 0 {
		opts.CaptchaAttempts = 1
	}
	if opts.CaptchaAttempts > maxCaptchaAttempts {
		opts.CaptchaAttempts = maxCaptchaAttempts
	}
	if opts.Classifier == nil {
		opts.Classifier = studentcorner.DefaultClassifier{}
	}

	return Service{
		store:      store,
		solver:     solver,
		classifier: opts.Classifier,
		portal:     opts.Portal,
		attempts:   opts.CaptchaAttempts,
		tel:        telemetry.NewScopedAPI("service", tel),
	}
}

// openSession starts a portal session with its cookies seeded, it is not
// stored yet.
func (s Service) openSession(ctx context.Context) (*studentcorner.Session, error) {
	conn, err := studentcorner.NewSession(s.portal, s.tel)
	if err != nil {
		return nil, err
	}
	err = conn.Seed(ctx)
	if err != nil {
		return nil, upstream(err)
	}
	return conn, nil
}
