// Package resolver standardizes astronomical object names through the CDS
// Sesame name resolver.
package resolver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	apperrors "go-fits-inspector/internal/errors"
)

const (
	// DefaultEndpoint is the Sesame service queried for every name
	DefaultEndpoint = "https://cds.unistra.fr/cgi-bin/nph-sesame/@NSV"

	// DefaultTimeout bounds a single lookup
	DefaultTimeout = 10 * time.Second

	// Unknown is returned for names that are empty or already unknown
	Unknown = "Unknown"

	maxBodyBytes = 64 << 10
)

// Reason classifies why a lookup did not produce a name
type Reason string

const (
	ReasonStatus    Reason = "status"
	ReasonEmpty     Reason = "empty"
	ReasonTransport Reason = "transport"
	ReasonTimeout   Reason = "timeout"
	ReasonLimited   Reason = "rate_limited"
)

// LookupError describes a failed lookup
type LookupError struct {
	Name       string
	Reason     Reason
	StatusCode int
	Err        error
}

func (e *LookupError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("resolve %q: %s (HTTP %d)", e.Name, e.Reason, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("resolve %q: %s: %v", e.Name, e.Reason, e.Err)
	default:
		return fmt.Sprintf("resolve %q: %s", e.Name, e.Reason)
	}
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Resolver turns free-form object names into standardized names
type Resolver interface {
	// Resolve never fails: on any problem it returns the input unchanged.
	Resolve(ctx context.Context, name string) string
}

// Options configures a Sesame resolver
type Options struct {
	Endpoint string
	Timeout  time.Duration
	// RateLimit is the maximum number of lookups per second; zero disables limiting.
	RateLimit float64
	Client    *http.Client
}

// SesameResolver queries Sesame once per name, without retries
type SesameResolver struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	log      logrus.FieldLogger
}

// New creates a Sesame-backed resolver
func New(opts Options, log logrus.FieldLogger) Resolver {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	client := opts.Client
	if client == nil {
		transport := &http.Transport{
			MaxIdleConns:           10,
			MaxIdleConnsPerHost:    2,
			IdleConnTimeout:        30 * time.Second,
			TLSHandshakeTimeout:    opts.Timeout,
			ResponseHeaderTimeout:  opts.Timeout,
			MaxResponseHeaderBytes: 4096,
		}
		client = &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		}
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &SesameResolver{
		endpoint: strings.TrimRight(opts.Endpoint, "?"),
		client:   client,
		limiter:  limiter,
		log:      log,
	}
}

// Resolve implements Resolver
func (s *SesameResolver) Resolve(ctx context.Context, name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || strings.EqualFold(trimmed, "unknown") {
		s.log.Debug("object name empty or unknown")
		return Unknown
	}

	resolved, err := s.lookup(ctx, trimmed)
	if err != nil {
		aerr := classify(err)
		entry := s.log.WithField("object", name).WithError(aerr)
		if apperrors.IsType(aerr, apperrors.ErrorTypeNetwork) || apperrors.IsType(aerr, apperrors.ErrorTypeTimeout) {
			entry.Error("object name lookup failed")
		} else {
			entry.Warn("object name not resolved, keeping original")
		}
		return name
	}

	s.log.WithFields(logrus.Fields{"object": name, "resolved": resolved}).Info("object name resolved")
	return resolved
}

// classify maps a failed lookup onto the application error types. A
// cancelled rate-limit wait is returned as is.
func classify(err error) error {
	var lerr *LookupError
	if !errors.As(err, &lerr) {
		return err
	}
	switch lerr.Reason {
	case ReasonTimeout:
		return apperrors.NewTimeoutError("object name lookup timed out", err).WithDetails(lerr.Name)
	case ReasonTransport:
		return apperrors.NewNetworkError("object name lookup failed", err).WithDetails(lerr.Name)
	case ReasonStatus, ReasonEmpty:
		return apperrors.NewNotFoundError("object name not known to the resolver", err).WithDetails(lerr.Name)
	}
	return err
}

func (s *SesameResolver) lookup(ctx context.Context, name string) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", &LookupError{Name: name, Reason: ReasonLimited, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+url.QueryEscape(name), nil)
	if err != nil {
		return "", &LookupError{Name: name, Reason: ReasonTransport, Err: err}
	}
	req.Header.Set("Accept", "text/plain, */*")
	req.Header.Set("User-Agent", "Go-FITS-Inspector/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		reason := ReasonTransport
		if isTimeout(ctx, err) {
			reason = ReasonTimeout
		}
		return "", &LookupError{Name: name, Reason: reason, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &LookupError{Name: name, Reason: ReasonStatus, StatusCode: resp.StatusCode}
	}

	first, err := firstLine(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &LookupError{Name: name, Reason: ReasonTransport, Err: err}
	}
	if first == "" {
		return "", &LookupError{Name: name, Reason: ReasonEmpty}
	}
	return first, nil
}

// firstLine returns the first non-blank line of a response body, trimmed
func firstLine(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxBodyBytes)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line, nil
		}
	}
	return "", sc.Err()
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue) && ue.Timeout()
}
