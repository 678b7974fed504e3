package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"studentcorner-backend/internal/captcha"
	"studentcorner-backend/internal/components/telemetry"
	"studentcorner-backend/internal/extract"
	"studentcorner-backend/internal/scrapers/studentcorner"
	"studentcorner-backend/internal/scrapers/studentcorner/studentcornertest"
	"studentcorner-backend/internal/session"

	"github.com/stretchr/testify/require"
)

type stubSolver struct {
	code  string
	calls atomic.Int32
}

func (s *stubSolver) Solve(ctx context.Context, raw []byte) captcha.Solution {
	s.calls.Add(1)
	if s.code == "" {
		return captcha.Solution{Failure: captcha.ErrWrongLength}
	}
	return captcha.Solution{Code: s.code}
}

type fixture struct {
	portal  *studentcornertest.Portal
	store   *session.MemoryStore[*studentcorner.Session]
	solver  *stubSolver
	service Service
}

func newFixture(t *testing.T, opts Options) fixture {
	portal := studentcornertest.NewPortal(t)
	store := session.NewMemoryStore[*studentcorner.Session](session.MemoryStoreOptions{}, telemetry.SlogAPI{})
	solver := &stubSolver{code: portal.Code}

	opts.Portal = studentcorner.Options{
		BaseUrl:           portal.BaseUrl(),
		RequestsPerSecond: 1000,
	}
	return fixture{
		portal:  portal,
		store:   store,
		solver:  solver,
		service: NewService(store, solver, opts, telemetry.SlogAPI{}),
	}
}

func (f fixture) login(t *testing.T) string {
	result, err := f.service.Login(context.Background(), LoginRequest{
		Username: f.portal.Username,
		Password: f.portal.Password,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	return result.Handle
}

func TestLoginWithoutHandle(t *testing.T) {
	f := newFixture(t, Options{})

	result, err := f.service.Login(context.Background(), LoginRequest{
		Username: f.portal.Username,
		Password: f.portal.Password,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotEmpty(t, result.Handle)
	require.Equal(t, messageLoginAutoSuccess, result.Message)
	require.Equal(t, int32(1), f.solver.calls.Load())

	_, err = f.store.Get(context.Background(), result.Handle)
	require.NoError(t, err)
}

func TestLoginWithChallenge(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	challenge, err := f.service.BeginChallenge(ctx)
	require.NoError(t, err)
	require.Equal(t, studentcornertest.CaptchaImage(), challenge.Image)
	require.Equal(t, 1, f.store.Len())

	result, err := f.service.Login(ctx, LoginRequest{
		Handle:   challenge.Handle,
		Username: f.portal.Username,
		Password: f.portal.Password,
		Captcha:  "abc12",
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, challenge.Handle, result.Handle)
	require.Equal(t, messageLoginSuccess, result.Message)
	require.Equal(t, int32(0), f.solver.calls.Load())
	require.Equal(t, 1, f.store.Len())
}

func TestLoginWithStaleHandleOpensNewSession(t *testing.T) {
	f := newFixture(t, Options{})

	result, err := f.service.Login(context.Background(), LoginRequest{
		Handle:   "stale-handle",
		Username: f.portal.Username,
		Password: f.portal.Password,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotEqual(t, "stale-handle", result.Handle)
}

func TestLoginFailureDropsHandle(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	result, err := f.service.Login(ctx, LoginRequest{
		Username: f.portal.Username,
		Password: "wrong",
	})
	require.ErrorIs(t, err, ErrLoginFailed)
	require.False(t, result.Success)
	require.Empty(t, result.Handle)
	require.Equal(t, 0, f.store.Len())

	challenge, err := f.service.BeginChallenge(ctx)
	require.NoError(t, err)
	_, err = f.service.Login(ctx, LoginRequest{
		Handle:   challenge.Handle,
		Username: f.portal.Username,
		Password: f.portal.Password,
		Captcha:  "WRONG",
	})
	require.ErrorIs(t, err, ErrLoginFailed)

	_, err = f.store.Get(ctx, challenge.Handle)
	require.ErrorIs(t, err, session.ErrNotFound)
	_, err = f.service.FetchReport(ctx, challenge.Handle, 1, nil)
	require.ErrorIs(t, err, ErrSessionInvalid)
}

func TestCaptchaSolveFailure(t *testing.T) {
	f := newFixture(t, Options{CaptchaAttempts: 2})
	f.solver.code = ""

	result, err := f.service.Login(context.Background(), LoginRequest{
		Username: f.portal.Username,
		Password: f.portal.Password,
	})
	require.ErrorIs(t, err, ErrCaptchaSolveFailed)
	require.False(t, result.Success)
	require.Equal(t, messageCaptchaFailed, result.Message)
	require.Equal(t, int32(2), f.solver.calls.Load())
	require.Equal(t, 0, f.store.Len())
	require.Empty(t, f.portal.LastForm("StudentLoginToPortal"))
}

func TestCaptchaAttemptsAreCapped(t *testing.T) {
	f := newFixture(t, Options{CaptchaAttempts: 50})
	f.solver.code = ""

	_, err := f.service.Login(context.Background(), LoginRequest{
		Username: f.portal.Username,
		Password: f.portal.Password,
	})
	require.ErrorIs(t, err, ErrCaptchaSolveFailed)
	require.Equal(t, int32(maxCaptchaAttempts), f.solver.calls.Load())
}

func TestLoginPortalDown(t *testing.T) {
	f := newFixture(t, Options{})
	f.portal.SetStatus("StudentLoginPage", http.StatusServiceUnavailable)

	_, err := f.service.Login(context.Background(), LoginRequest{
		Username: f.portal.Username,
		Password: f.portal.Password,
	})
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	require.Equal(t, 0, f.store.Len())

	_, err = f.service.BeginChallenge(context.Background())
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	require.Equal(t, 0, f.store.Len())
}

func TestCustomClassifier(t *testing.T) {
	f := newFixture(t, Options{
		Classifier: studentcorner.LoginClassifierFunc(func(page studentcorner.LoginPage) bool {
			return false
		}),
	})

	_, err := f.service.Login(context.Background(), LoginRequest{
		Username: f.portal.Username,
		Password: f.portal.Password,
	})
	require.ErrorIs(t, err, ErrLoginFailed)
}

func TestFetchReport(t *testing.T) {
	f := newFixture(t, Options{})
	f.portal.SetPage(3, `<table>
		<tr><td>Subject Code</td><td>Subject Name</td><td>a</td><td>b</td><td>c</td><td>d</td><td>e</td><td>f</td><td>g</td></tr>
		<tr><td>CS101</td><td>Data Structures</td><td>40</td><td>38</td><td>2</td><td>0</td><td>95</td><td>0</td><td>95</td></tr>
	</table>`)
	handle := f.login(t)

	report, err := f.service.FetchReport(context.Background(), handle, 3, nil)
	require.NoError(t, err)
	require.Equal(t, "Attendance Details", report.Name)
	require.False(t, report.Degraded)
	require.Contains(t, report.Html, "CS101")

	records := report.Data.([]extract.AttendanceRecord)
	require.Len(t, records, 1)
	require.Equal(t, "CS101", records[0].SubjectCode)
	require.Equal(t, "95", records[0].AttendancePercentage)
}

func TestFetchReportPassthroughAndDegraded(t *testing.T) {
	f := newFixture(t, Options{})
	f.portal.SetPage(1, "<html><body>maintenance</body></html>")
	handle := f.login(t)
	ctx := context.Background()

	report, err := f.service.FetchReport(ctx, handle, 107, nil)
	require.NoError(t, err)
	require.Nil(t, report.Data)
	require.False(t, report.Degraded)
	require.Contains(t, report.Html, "report 107")

	report, err = f.service.FetchReport(ctx, handle, 1, nil)
	require.NoError(t, err)
	require.True(t, report.Degraded)
	require.Equal(t, ErrExtractionDegraded.Error(), report.Warning)
	require.Equal(t, "<html><body>maintenance</body></html>", report.Html)
}

func TestFetchReportAfterLogout(t *testing.T) {
	f := newFixture(t, Options{})
	handle := f.login(t)
	ctx := context.Background()

	result, err := f.service.Logout(ctx, handle)
	require.NoError(t, err)
	require.Equal(t, "Logged out successfully", result.Message)

	_, err = f.service.FetchReport(ctx, handle, 1, nil)
	require.ErrorIs(t, err, ErrSessionInvalid)

	result, err = f.service.Logout(ctx, handle)
	require.ErrorIs(t, err, ErrSessionInvalid)
	require.Equal(t, "Session not found", result.Message)
}

func TestFetchReportUnknownHandleMakesNoRequests(t *testing.T) {
	f := newFixture(t, Options{})
	before := f.portal.Requests()

	_, err := f.service.FetchReport(context.Background(), "never-issued", 1, nil)
	require.ErrorIs(t, err, ErrSessionInvalid)
	require.Equal(t, before, f.portal.Requests())
}

func TestFetchReportUpstreamFailure(t *testing.T) {
	f := newFixture(t, Options{})
	handle := f.login(t)
	f.portal.SetStatus(studentcorner.ReportResourcesPath, http.StatusInternalServerError)

	_, err := f.service.FetchReport(context.Background(), handle, 1, nil)
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	require.ErrorContains(t, err, studentcorner.ReportResourcesPath)

	// the session itself is still fine
	_, err = f.store.Get(context.Background(), handle)
	require.NoError(t, err)
}

func TestFetchReportPortalForgotSession(t *testing.T) {
	f := newFixture(t, Options{})
	handle := f.login(t)
	f.portal.ExpireSessions()

	_, err := f.service.FetchReport(context.Background(), handle, 1, nil)
	require.ErrorIs(t, err, ErrSessionInvalid)
	require.Equal(t, 0, f.store.Len())
}

func TestConcurrentLoginAndLogout(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	challenge, err := f.service.BeginChallenge(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var loginErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, loginErr = f.service.Login(ctx, LoginRequest{
			Handle:   challenge.Handle,
			Username: f.portal.Username,
			Password: f.portal.Password,
			Captcha:  f.portal.Code,
		})
	}()
	go func() {
		defer wg.Done()
		f.service.Logout(ctx, challenge.Handle)
	}()
	wg.Wait()

	// either the login ran first and was logged out, or the logout ran first
	// and the login found the handle gone
	if loginErr != nil {
		require.ErrorIs(t, loginErr, ErrSessionInvalid)
	}
	_, err = f.store.Get(ctx, challenge.Handle)
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestConcurrentSessionsAreIndependent(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	handles := make([]string, 8)
	var wg sync.WaitGroup
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := f.service.Login(ctx, LoginRequest{
				Username: f.portal.Username,
				Password: f.portal.Password,
			})
			if err == nil {
				handles[i] = result.Handle
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, handle := range handles {
		require.NotEmpty(t, handle)
		require.False(t, seen[handle])
		seen[handle] = true

		_, err := f.service.FetchReport(ctx, handle, 2, nil)
		require.NoError(t, err)
	}
}

func TestLoginWithOCRSolver(t *testing.T) {
	ocrServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"IsErroredOnProcessing": false, "ParsedResults": [{"ParsedText": "a b c 1 2\n"}]}`)
	}))
	t.Cleanup(ocrServer.Close)

	portal := studentcornertest.NewPortal(t)
	store := session.NewMemoryStore[*studentcorner.Session](session.MemoryStoreOptions{
		IdleTimeout: time.Minute,
	}, telemetry.SlogAPI{})
	solver := captcha.NewSolver(
		captcha.NewOCRSpace(captcha.OCRSpaceOptions{Endpoint: ocrServer.URL}, telemetry.SlogAPI{}),
		captcha.SolverOptions{},
		telemetry.SlogAPI{},
	)
	svc := NewService(store, solver, Options{
		Portal: studentcorner.Options{BaseUrl: portal.BaseUrl(), RequestsPerSecond: 1000},
	}, telemetry.SlogAPI{})

	result, err := svc.Login(context.Background(), LoginRequest{
		Username: portal.Username,
		Password: portal.Password,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "ABC12", portal.LastForm("StudentLoginToPortal").Get("ccode"))
}
