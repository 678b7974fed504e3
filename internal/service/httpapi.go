package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"studentcorner-backend/internal/scrapers/studentcorner"
)

const (
	report_http = "http"

	// SessionHeader carries the handle of the session opened by GET /api/captcha.
	SessionHeader = "X-Session-ID"

	maxBodySize = 1 << 16
)

type loginBody struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Captcha   string `json:"captcha"`
	SessionId string `json:"session_id"`
}

type loginResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SessionId string `json:"session_id,omitempty"`
}

type sessionBody struct {
	SessionId string `json:"session_id"`
	// Params are posted to the portal along with the report selector.
	Params map[string]string `json:"params"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Handler returns the JSON api of s, all routes live under /api.
func (s Service) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/captcha", s.handleCaptcha)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("DELETE /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/reports", s.handleCatalog)
	mux.HandleFunc("POST /api/reports/{selector}", func(w http.ResponseWriter, r *http.Request) {
		selector, err := strconv.Atoi(r.PathValue("selector"))
		if err != nil || selector <= 0 {
			s.writeJson(w, http.StatusBadRequest, errorResponse{
				Detail: fmt.Sprintf("invalid report selector %q", r.PathValue("selector")),
			})
			return
		}
		s.handleReport(w, r, selector)
	})
	for _, info := range studentcorner.Reports {
		selector := info.Selector
		mux.HandleFunc("POST /api/"+info.Route, func(w http.ResponseWriter, r *http.Request) {
			s.handleReport(w, r, selector)
		})
	}

	return cors(mux)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("Access-Control-Allow-Origin", "*")
		header.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		header.Set("Access-Control-Allow-Headers", "*")
		header.Set("Access-Control-Expose-Headers", SessionHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s Service) writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		s.tel.ReportWarning(report_http, fmt.Errorf("write response: %w", err))
	}
}

func (s Service) readJson(w http.ResponseWriter, r *http.Request, out any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(out)
	if err != nil && !errors.Is(err, io.EOF) {
		s.writeJson(w, http.StatusBadRequest, errorResponse{
			Detail: fmt.Sprintf("invalid request body: %s", err.Error()),
		})
		return false
	}
	return true
}

// writeError maps the service errors to status codes.
func (s Service) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionInvalid):
		s.writeJson(w, http.StatusUnauthorized, errorResponse{
			Detail: "Invalid or expired session. Please login again.",
		})
	case errors.Is(err, ErrUpstreamUnavailable):
		s.writeJson(w, http.StatusBadGateway, errorResponse{
			Detail: "Failed to fetch data from portal",
		})
	default:
		s.tel.ReportBroken(report_http, err)
		s.writeJson(w, http.StatusInternalServerError, errorResponse{
			Detail: "Internal error",
		})
	}
}

func (s Service) handleCaptcha(w http.ResponseWriter, r *http.Request) {
	challenge, err := s.BeginChallenge(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set(SessionHeader, challenge.Handle)
	w.Header().Set("content-type", "image/png")
	_, err = w.Write(challenge.Image)
	if err != nil {
		s.tel.ReportWarning(report_http, fmt.Errorf("write captcha: %w", err))
	}
}

func (s Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if !s.readJson(w, r, &body) {
		return
	}
	if body.Username == "" || body.Password == "" {
		s.writeJson(w, http.StatusBadRequest, errorResponse{Detail: "username and password are required"})
		return
	}

	result, err := s.Login(r.Context(), LoginRequest{
		Handle:   body.SessionId,
		Username: body.Username,
		Password: body.Password,
		Captcha:  body.Captcha,
	})
	if err != nil &&
		!errors.Is(err, ErrLoginFailed) &&
		!errors.Is(err, ErrCaptchaSolveFailed) {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, loginResponse{
		Success:   result.Success,
		Message:   result.Message,
		SessionId: result.Handle,
	})
}

func (s Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	var body sessionBody
	if !s.readJson(w, r, &body) {
		return
	}
	// logging out of a dead session is not an error for the caller
	result, _ := s.Logout(r.Context(), body.SessionId)
	s.writeJson(w, http.StatusOK, messageResponse{Message: result.Message})
}

func (s Service) handleReport(w http.ResponseWriter, r *http.Request, selector int) {
	var body sessionBody
	if !s.readJson(w, r, &body) {
		return
	}
	if body.SessionId == "" {
		s.writeJson(w, http.StatusBadRequest, errorResponse{Detail: "session_id is required"})
		return
	}

	extra := url.Values{}
	for key, value := range body.Params {
		extra.Set(key, value)
	}

	report, err := s.FetchReport(r.Context(), body.SessionId, selector, extra)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJson(w, http.StatusOK, report)
}

func (s Service) handleCatalog(w http.ResponseWriter, r *http.Request) {
	s.writeJson(w, http.StatusOK, studentcorner.Reports)
}

type indexResponse struct {
	Message        string              `json:"message"`
	TotalEndpoints int                 `json:"total_endpoints"`
	Categories     map[string][]string `json:"categories"`
}

func (s Service) handleIndex(w http.ResponseWriter, r *http.Request) {
	categories := map[string][]string{
		"authentication": {
			"GET /api/captcha - Get captcha image",
			"POST /api/login - Login with credentials",
			"DELETE /api/logout - Logout session",
		},
		"reports": {
			"GET /api/reports - List known reports",
			"POST /api/reports/{selector} - Any report by selector",
		},
	}
	total := 5
	for _, info := range studentcorner.Reports {
		categories[info.Category] = append(
			categories[info.Category],
			fmt.Sprintf("POST /api/%s - %s", info.Route, info.Name),
		)
		total++
	}
	for _, routes := range categories {
		sort.Strings(routes)
	}

	s.writeJson(w, http.StatusOK, indexResponse{
		Message:        "SRM AP Student Corner API",
		TotalEndpoints: total,
		Categories:     categories,
	})
}
