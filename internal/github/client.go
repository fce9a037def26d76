package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
	"golang.org/x/oauth2"
)

// UserAgent is sent with every API request.
const UserAgent = "reposeed"

type Client struct {
	Client *github.Client
	HTTP   *http.Client
}

// Auth selects how API requests authenticate. Token wins over User/Password.
type Auth struct {
	User     string
	Password string
	Token    string
}

type options struct {
	verbose bool
	// writer controls where verbose HTTP logs are written (typically stderr) so
	// structured output on stdout (e.g. NDJSON) stays clean and tests can capture logs.
	writer      io.Writer
	apiURL      string
	noRateLimit bool
}

type Option func(*options)

func WithVerbose(enabled bool, writer io.Writer) Option {
	return func(o *options) {
		o.verbose = enabled
		o.writer = writer
	}
}

// WithAPIURL points the client at a GitHub Enterprise API base URL.
func WithAPIURL(apiURL string) Option {
	return func(o *options) {
		o.apiURL = apiURL
	}
}

// WithoutRateLimitWaiter disables sleeping on secondary rate limits.
func WithoutRateLimitWaiter() Option {
	return func(o *options) {
		o.noRateLimit = true
	}
}

// loggingRoundTripper wraps an underlying transport and emits one line per
// request and response (including latency) when verbose logging is enabled.
type loggingRoundTripper struct {
	base http.RoundTripper
	w    io.Writer
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	if t.w != nil {
		_, _ = fmt.Fprintf(t.w, "[verbose] github api: %s %s\n", req.Method, req.URL.Redacted())
	}
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start)
	if t.w != nil {
		if err != nil {
			_, _ = fmt.Fprintf(t.w, "[verbose] github api: error after %s: %v\n", dur.Truncate(time.Millisecond), err)
		} else {
			_, _ = fmt.Fprintf(t.w, "[verbose] github api: %d %s (%s)\n", resp.StatusCode, http.StatusText(resp.StatusCode), dur.Truncate(time.Millisecond))
		}
	}
	return resp, err
}

// acceptJSONRoundTripper pins Accept to application/json; none of the
// endpoints used here need a preview media type.
type acceptJSONRoundTripper struct {
	base http.RoundTripper
}

func (t *acceptJSONRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Accept", "application/json")
	return t.base.RoundTrip(req)
}

func NewClient(ctx context.Context, auth Auth, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.verbose && o.writer == nil {
		o.writer = os.Stderr
	}

	transport := http.DefaultTransport
	if o.verbose {
		transport = &loggingRoundTripper{base: transport, w: o.writer}
	}
	if !o.noRateLimit {
		waiter, err := github_ratelimit.NewRateLimitWaiter(transport, github_ratelimit.WithSingleSleepLimit(5*time.Minute, nil))
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
		}
		transport = waiter
	}
	transport = &acceptJSONRoundTripper{base: transport}

	switch {
	case strings.TrimSpace(auth.Token) != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: strings.TrimSpace(auth.Token)})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	case auth.User != "" && auth.Password != "":
		transport = &github.BasicAuthTransport{
			Username:  auth.User,
			Password:  auth.Password,
			Transport: transport,
		}
	}
	// Always provide an http.Client so verbose logging works even without credentials.
	tc := &http.Client{Transport: transport}

	client := github.NewClient(tc)
	client.UserAgent = UserAgent
	if o.apiURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(o.apiURL, o.apiURL)
		if err != nil {
			return nil, fmt.Errorf("github client: invalid API URL: %w", err)
		}
	}

	return &Client{
		Client: client,
		HTTP:   tc,
	}, nil
}
