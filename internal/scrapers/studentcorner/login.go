package studentcorner

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const (
	report_session_seed    = "session.seed"
	report_session_captcha = "session.captcha"
	report_session_login   = "session.login"
)

// Seed loads the login page so that the portal issues its session cookies.
func (s *Session) Seed(ctx context.Context) error {
	res, err := s.http.R().
		SetContext(ctx).
		Get("/StudentLoginPage")
	if err != nil {
		s.tel.ReportBroken(report_session_seed, err)
		return fmt.Errorf("studentcorner: seed session: %w", err)
	}
	if !res.IsSuccess() {
		err := &UpstreamError{Endpoint: "StudentLoginPage", Status: res.StatusCode()}
		s.tel.ReportBroken(report_session_seed, err)
		return err
	}
	return nil
}

// Captcha fetches a fresh challenge image, the portal binds the challenge to
// the session cookie so it must be solved within this session.
func (s *Session) Captcha(ctx context.Context) ([]byte, error) {
	res, err := s.http.R().
		SetContext(ctx).
		Get("/captchas")
	if err != nil {
		s.tel.ReportBroken(report_session_captcha, err)
		return nil, fmt.Errorf("studentcorner: fetch captcha: %w", err)
	}
	if !res.IsSuccess() {
		err := &UpstreamError{Endpoint: "captchas", Status: res.StatusCode()}
		s.tel.ReportBroken(report_session_captcha, err)
		return nil, err
	}
	return res.Body(), nil
}

type Credentials struct {
	Username string
	Password string
	Code     string
}

// LoginPage is whatever the portal answered to a login submission after
// redirects were followed.
type LoginPage struct {
	Status   int
	FinalUrl *url.URL
	Body     string
}

// SubmitLogin posts the login form, the code is uppercased before it is sent.
// It does not decide whether the login worked, see LoginClassifier.
func (s *Session) SubmitLogin(ctx context.Context, creds Credentials) (LoginPage, error) {
	s.tel.ReportDebug(report_session_login, creds.Username)

	res, err := s.http.R().
		SetContext(ctx).
		SetHeader("Referer", s.endpoint("StudentLoginPage")).
		SetHeader("Origin", s.origin()).
		SetFormData(map[string]string{
			"txtUserName": creds.Username,
			"txtAuthKey":  creds.Password,
			"ccode":       strings.ToUpper(creds.Code),
		}).
		Post("/StudentLoginToPortal")
	if err != nil {
		s.tel.ReportBroken(report_session_login, err)
		return LoginPage{}, fmt.Errorf("studentcorner: submit login: %w", err)
	}

	return LoginPage{
		Status:   res.StatusCode(),
		FinalUrl: finalUrl(res),
		Body:     res.String(),
	}, nil
}

// LoginClassifier decides whether a login submission succeeded.
type LoginClassifier interface {
	LoggedIn(page LoginPage) bool
}

type LoginClassifierFunc func(page LoginPage) bool

func (f LoginClassifierFunc) LoggedIn(page LoginPage) bool {
	return f(page)
}

// DefaultClassifier treats a login as failed when the body carries the
// portal's "Invalid" marker or the portal left us on a login page.
type DefaultClassifier struct{}

func (DefaultClassifier) LoggedIn(page LoginPage) bool {
	if strings.Contains(page.Body, "Invalid") {
		return false
	}
	return !isLoginUrl(page.FinalUrl)
}

func isLoginUrl(u *url.URL) bool {
	if u == nil {
		return false
	}
	return strings.Contains(strings.ToLower(u.Path), "login")
}
