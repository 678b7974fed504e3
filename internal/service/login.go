package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"studentcorner-backend/internal/scrapers/studentcorner"
	"studentcorner-backend/internal/session"
)

type Challenge struct {
	// Image is the challenge as served by the portal, usually a png.
	Image  []byte
	Handle string
}

// BeginChallenge opens a new session and returns its first captcha so that
// the caller can solve it by hand.
func (s Service) BeginChallenge(ctx context.Context) (Challenge, error) {
	conn, err := s.openSession(ctx)
	if err != nil {
		s.tel.ReportWarning(report_challenge, err)
		return Challenge{}, err
	}
	image, err := conn.Captcha(ctx)
	if err != nil {
		s.tel.ReportWarning(report_challenge, err)
		return Challenge{}, upstream(err)
	}

	handle, err := s.store.Create(ctx, conn)
	if err != nil {
		s.tel.ReportBroken(report_challenge, fmt.Errorf("store session: %w", err))
		return Challenge{}, err
	}
	return Challenge{Image: image, Handle: handle}, nil
}

type LoginRequest struct {
	// Handle is optional, a new session is opened when it is empty or not live.
	Handle   string
	Username string
	Password string
	// Captcha is optional, it is solved automatically when empty.
	Captcha string
}

type LoginResult struct {
	Success bool
	Message string
	// Handle is only set on success.
	Handle string
}

const (
	messageLoginSuccess     = "Login successful"
	messageLoginAutoSuccess = "Login successful (captcha auto-solved)"
	messageLoginFailed      = "Login failed. Check your credentials or try again."
	messageCaptchaFailed    = "Auto-captcha solving failed. Please try again."
)

// resolve returns the live session of handle or opens and stores a new one.
func (s Service) resolve(ctx context.Context, handle string) (string, *studentcorner.Session, error) {
	if handle != "" {
		conn, err := s.store.Get(ctx, handle)
		if err == nil {
			return handle, conn, nil
		}
		if !errors.Is(err, session.ErrNotFound) {
			return "", nil, err
		}
	}

	conn, err := s.openSession(ctx)
	if err != nil {
		return "", nil, err
	}
	handle, err = s.store.Create(ctx, conn)
	if err != nil {
		return "", nil, err
	}
	return handle, conn, nil
}

// Login authenticates a session against the portal. A failed login always
// drops the session, the returned error then matches ErrLoginFailed,
// ErrCaptchaSolveFailed or ErrUpstreamUnavailable.
func (s Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	handle, conn, err := s.resolve(ctx, req.Handle)
	if err != nil {
		s.tel.ReportWarning(report_login, fmt.Errorf("resolve session: %w", err))
		return LoginResult{Message: messageLoginFailed}, err
	}

	conn.Lock()
	defer conn.Unlock()

	// a logout may have won the race for the lock
	current, err := s.store.Get(ctx, handle)
	if err != nil || current != conn {
		return LoginResult{Message: messageLoginFailed}, ErrSessionInvalid
	}

	fail := func(message string, err error) (LoginResult, error) {
		deleteErr := s.store.Delete(ctx, handle)
		if deleteErr != nil && !errors.Is(deleteErr, session.ErrNotFound) {
			s.tel.ReportBroken(report_login, fmt.Errorf("drop session: %w", deleteErr))
		}
		return LoginResult{Message: message}, err
	}

	code := strings.ToUpper(strings.TrimSpace(req.Captcha))
	auto := code == ""
	if auto {
		code, err = s.solveChallenge(ctx, conn)
		if err != nil {
			s.tel.ReportWarning(report_login, err)
			return fail(messageCaptchaFailed, err)
		}
	}

	page, err := conn.SubmitLogin(ctx, studentcorner.Credentials{
		Username: req.Username,
		Password: req.Password,
		Code:     code,
	})
	if err != nil {
		s.tel.ReportWarning(report_login, err)
		return fail(messageLoginFailed, upstream(err))
	}
	if !s.classifier.LoggedIn(page) {
		s.tel.ReportDebug("login rejected", req.Username, page.FinalUrl.String())
		return fail(messageLoginFailed, ErrLoginFailed)
	}

	message := messageLoginSuccess
	if auto {
		message = messageLoginAutoSuccess
	}
	return LoginResult{Success: true, Message: message, Handle: handle}, nil
}

// solveChallenge fetches and solves challenges until one yields a code or the
// attempt budget runs out.
func (s Service) solveChallenge(ctx context.Context, conn *studentcorner.Session) (string, error) {
	var failures []error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		image, err := conn.Captcha(ctx)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		solution := s.solver.Solve(ctx, image)
		if solution.Solved() {
			s.tel.ReportDebug("captcha solved", attempt, solution.Code)
			return solution.Code, nil
		}
		failures = append(failures, solution.Failure)
	}
	return "", fmt.Errorf(
		"%w after %d attempt(s): %w",
		ErrCaptchaSolveFailed, s.attempts, errors.Join(failures...),
	)
}

type LogoutResult struct {
	Message string
}

// Logout drops the session of handle, ErrSessionInvalid is returned when it
// was not live.
func (s Service) Logout(ctx context.Context, handle string) (LogoutResult, error) {
	conn, err := s.store.Get(ctx, handle)
	if err != nil {
		return LogoutResult{Message: "Session not found"}, ErrSessionInvalid
	}

	conn.Lock()
	defer conn.Unlock()

	err = s.store.Delete(ctx, handle)
	if err != nil {
		return LogoutResult{Message: "Session not found"}, ErrSessionInvalid
	}
	s.tel.ReportDebug(report_logout, handle)
	return LogoutResult{Message: "Logged out successfully"}, nil
}
