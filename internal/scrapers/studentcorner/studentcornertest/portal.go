// Package studentcornertest provides an in-process fake of the student corner
// portal for tests.
package studentcornertest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
)

const (
	prefix     = "/srmapstudentcorner"
	cookieName = "JSESSIONID"
)

type Portal struct {
	Server *httptest.Server

	Username string
	Password string
	// Code is the only captcha answer the portal accepts.
	Code string

	mutex    sync.Mutex
	sessions map[string]bool
	pages    map[int]string
	statuses map[string]int
	forms    map[string]url.Values
	requests atomic.Int64
}

// NewPortal starts a fake portal accepting student "AP123" with password
// "hunter2" and captcha code "ABC12". It is closed when the test ends.
func NewPortal(t testing.TB) *Portal {
	p := &Portal{
		Username: "AP123",
		Password: "hunter2",
		Code:     "ABC12",
		sessions: map[string]bool{},
		pages:    map[int]string{},
		statuses: map[string]int{},
		forms:    map[string]url.Values{},
	}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Server.Close)
	return p
}

func (p *Portal) BaseUrl() string {
	return p.Server.URL + prefix
}

// SetPage sets the markup served for a report selector.
func (p *Portal) SetPage(selector int, markup string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.pages[selector] = markup
}

// SetStatus makes every request to path (relative to the base url) answer
// with status.
func (p *Portal) SetStatus(path string, status int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.statuses["/"+strings.TrimPrefix(path, "/")] = status
}

// ExpireSessions drops the portal side of every session.
func (p *Portal) ExpireSessions() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.sessions = map[string]bool{}
}

// LastForm returns the last form posted to path (relative to the base url).
func (p *Portal) LastForm(path string) url.Values {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.forms["/"+strings.TrimPrefix(path, "/")]
}

// Requests is the amount of requests the portal has received.
func (p *Portal) Requests() int64 {
	return p.requests.Load()
}

// CaptchaImage renders a small grayscale png standing in for a challenge.
func CaptchaImage() []byte {
	img := image.NewGray(image.Rect(0, 0, 60, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 60; x++ {
			shade := uint8(220)
			if (x/6)%2 == 0 && y > 4 && y < 16 {
				shade = 40
			}
			img.SetGray(x, y, color.Gray{Y: shade})
		}
	}
	var buf bytes.Buffer
	err := png.Encode(&buf, img)
	if err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func (p *Portal) session(r *http.Request) (id string, known, authed bool) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return "", false, false
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	authed, known = p.sessions[cookie.Value]
	return cookie.Value, known, authed
}

func (p *Portal) serve(w http.ResponseWriter, r *http.Request) {
	p.requests.Add(1)

	path := strings.TrimPrefix(r.URL.Path, prefix)
	if r.Method == http.MethodPost {
		err := r.ParseForm()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		p.mutex.Lock()
		p.forms[path] = r.PostForm
		p.mutex.Unlock()
	}

	p.mutex.Lock()
	status, overridden := p.statuses[path]
	p.mutex.Unlock()
	if overridden {
		w.WriteHeader(status)
		fmt.Fprintf(w, "<html>status %d</html>", status)
		return
	}

	switch path {
	case "/StudentLoginPage":
		p.serveLoginPage(w, r)
	case "/captchas":
		p.serveCaptcha(w, r)
	case "/StudentLoginToPortal":
		p.serveLogin(w, r)
	case "/HRDSystem":
		fmt.Fprint(w, "<html><body>Welcome to the student corner</body></html>")
	default:
		p.serveReport(w, r)
	}
}

func (p *Portal) serveLoginPage(w http.ResponseWriter, r *http.Request) {
	_, known, _ := p.session(r)
	if !known {
		id := uuid.NewString()
		p.mutex.Lock()
		p.sessions[id] = false
		p.mutex.Unlock()
		http.SetCookie(w, &http.Cookie{Name: cookieName, Value: id, Path: prefix})
	}
	msg := r.URL.Query().Get("msg")
	fmt.Fprintf(w, `<html><body><form action="StudentLoginToPortal">%s</form></body></html>`, msg)
}

func (p *Portal) serveCaptcha(w http.ResponseWriter, r *http.Request) {
	_, known, _ := p.session(r)
	if !known {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	w.Header().Set("content-type", "image/png")
	w.Write(CaptchaImage())
}

func (p *Portal) serveLogin(w http.ResponseWriter, r *http.Request) {
	id, known, _ := p.session(r)
	if r.Method != http.MethodPost || !known {
		http.Redirect(w, r, prefix+"/StudentLoginPage", http.StatusFound)
		return
	}

	if r.PostForm.Get("ccode") != p.Code {
		http.Redirect(w, r, prefix+"/StudentLoginPage?msg=Invalid+Captcha", http.StatusFound)
		return
	}
	if r.PostForm.Get("txtUserName") != p.Username || r.PostForm.Get("txtAuthKey") != p.Password {
		fmt.Fprint(w, "<html><body>Invalid Username or Password</body></html>")
		return
	}

	p.mutex.Lock()
	p.sessions[id] = true
	p.mutex.Unlock()
	http.Redirect(w, r, prefix+"/HRDSystem", http.StatusFound)
}

func (p *Portal) serveReport(w http.ResponseWriter, r *http.Request) {
	_, _, authed := p.session(r)
	if !authed {
		http.Redirect(w, r, prefix+"/StudentLoginPage", http.StatusFound)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	selector, err := strconv.Atoi(r.PostForm.Get("ids"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	p.mutex.Lock()
	markup, ok := p.pages[selector]
	p.mutex.Unlock()
	if !ok {
		markup = fmt.Sprintf("<html><body>report %d</body></html>", selector)
	}
	fmt.Fprint(w, markup)
}
