// Package studentcorner talks to the SRM AP student corner portal. It knows the
// portal's endpoints and forms but nothing about how reports are interpreted.
package studentcorner

import (
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"studentcorner-backend/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const DefaultBaseUrl = "https://student.srmap.edu.in/srmapstudentcorner"

type Options struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl string
	// CloudflareBypass wraps the transport with a browser-like TLS fingerprint.
	CloudflareBypass bool
	// RequestsPerSecond defaults to 2.
	RequestsPerSecond float64
	// Timeout defaults to 30 seconds.
	Timeout time.Duration
	// Output receives a dump of every http message when set.
	Output telemetry.InstrumentOutput
}

func (o Options) withDefaults() Options {
	if o.BaseUrl == "" {
		o.BaseUrl = DefaultBaseUrl
	}
	o.BaseUrl = strings.TrimSuffix(o.BaseUrl, "/")
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = 2
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return o
}

// Session is one browsing session against the portal, it owns its own cookie
// jar so sessions never observe each other's authentication.
type Session struct {
	BaseUrl *url.URL

	http *resty.Client
	tel  telemetry.API

	// serializes login and logout on this session
	mutex sync.Mutex
}

func NewSession(opts Options, tel telemetry.API) (*Session, error) {
	opts = opts.withDefaults()
	tel = telemetry.NewScopedAPI("studentcorner_scraper", tel)

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(
		resty.FlexibleRedirectPolicy(10),
		resty.DomainCheckRedirectPolicy(baseUrl.Hostname()),
	)
	client.SetTimeout(opts.Timeout)

	// max burst >= 2 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 2)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, tel, "studentcorner", opts.Output)

	return &Session{
		BaseUrl: baseUrl,
		http:    client,
		tel:     tel,
	}, nil
}

func (s *Session) Lock() {
	s.mutex.Lock()
}

func (s *Session) Unlock() {
	s.mutex.Unlock()
}

func (s *Session) endpoint(path string) string {
	return fmt.Sprintf("%s/%s", s.BaseUrl.String(), strings.TrimPrefix(path, "/"))
}

func (s *Session) origin() string {
	return fmt.Sprintf("%s://%s", s.BaseUrl.Scheme, s.BaseUrl.Host)
}

// finalUrl is the url of the last request after following redirects.
func finalUrl(res *resty.Response) *url.URL {
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		return res.RawResponse.Request.URL
	}
	parsed, err := url.Parse(res.Request.URL)
	if err != nil {
		return &url.URL{}
	}
	return parsed
}
