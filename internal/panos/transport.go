// Package panos implements the read-only client for the PAN-OS XML
// management API: single-attempt transport, credential handling, retry
// with backoff, payload normalization, and the fleet-facing facade.
package panos

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"context"

	"github.com/clbanning/mxj/v2"
	"github.com/pastats/pastats/internal/config"
	"github.com/pastats/pastats/internal/errors"
	"github.com/pastats/pastats/internal/logger"
)

// OpRequest identifies one read-only operational command.
type OpRequest struct {
	// Command is the XML operational command, e.g.
	// "<show><system><info></info></system></show>".
	Command string
}

// Transport issues exactly one HTTPS request for one operation against
// one firewall. No retries happen at this layer; the retry engine owns
// that. The returned map is the decoded <response> element.
type Transport interface {
	Execute(ctx context.Context, fw config.Firewall, cred Credential, req OpRequest) (map[string]any, error)
}

// HTTPTransport is the production Transport over net/http.
type HTTPTransport struct {
	log logger.Logger

	mu      sync.Mutex
	clients map[clientKey]*http.Client
}

type clientKey struct {
	verifyTLS bool
}

// NewHTTPTransport creates a transport. Clients are shared per TLS mode
// so connection pools are reused across the fleet; the per-profile
// timeout rides on the request context instead.
func NewHTTPTransport(log logger.Logger) *HTTPTransport {
	if log == nil {
		log = logger.Noop()
	}
	return &HTTPTransport{
		log:     log,
		clients: make(map[clientKey]*http.Client),
	}
}

// Execute performs the single API call and classifies any failure.
func (t *HTTPTransport) Execute(ctx context.Context, fw config.Firewall, cred Credential, req OpRequest) (map[string]any, error) {
	endpoint := fmt.Sprintf("https://%s:%d/api/", fw.Host, fw.Port)

	params := url.Values{}
	params.Set("type", "op")
	params.Set("cmd", req.Command)
	params.Set("key", cred.Secret)

	if fw.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, fw.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfig, "Cannot build API request for "+fw.Host)
	}

	t.log.Debug("GET %s (verify_tls=%t, timeout=%s)", endpoint, fw.VerifyTLS, fw.Timeout)

	resp, err := t.client(fw.VerifyTLS).Do(httpReq)
	if err != nil {
		return nil, errors.Categorize(err, fw.Host)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Categorize(err, fw.Host)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.New(errors.ErrUnauthorized,
			fmt.Sprintf("API key rejected by %s (HTTP %d)", fw.Host, resp.StatusCode),
			"Check the api_key for this firewall; keys expire with admin password changes.")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, errors.NewRemote(resp.StatusCode,
			fmt.Sprintf("unexpected HTTP status from %s", fw.Host))
	}

	return parseResponse(body, fw.Host)
}

// client returns the pooled http.Client for a TLS verification mode.
func (t *HTTPTransport) client(verifyTLS bool) *http.Client {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := clientKey{verifyTLS: verifyTLS}
	if c, ok := t.clients[key]; ok {
		return c
	}

	c := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: !verifyTLS}, //nolint:gosec // verify_tls=false is an explicit per-firewall opt-out
		},
	}
	t.clients[key] = c
	return c
}

var attrPrefixOnce sync.Once

// decodeXML parses an XML document into a nested map with xmltodict-style
// "@" attribute keys.
func decodeXML(body []byte) (map[string]any, error) {
	attrPrefixOnce.Do(func() { mxj.SetAttrPrefix("@") })
	m, err := mxj.NewMapXml(body)
	if err != nil {
		return nil, err
	}
	return map[string]any(m), nil
}

// parseResponse decodes the API body and checks the <response> envelope.
// Success returns the response element (status attribute plus result
// subtree); an error-status envelope becomes a classified failure.
func parseResponse(body []byte, host string) (map[string]any, error) {
	doc, err := decodeXML(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrMalformed,
			fmt.Sprintf("Cannot parse XML response from %s", host))
	}

	response, ok := doc["response"].(map[string]any)
	if !ok {
		return nil, errors.New(errors.ErrMalformed,
			fmt.Sprintf("Response from %s has no <response> element", host), "")
	}

	status, _ := response["@status"].(string)
	switch status {
	case "success":
		return response, nil
	case "error":
		code := remoteCode(response)
		msg := remoteMessage(response)
		if code == http.StatusForbidden || strings.Contains(strings.ToLower(msg), "invalid credential") {
			return nil, errors.New(errors.ErrUnauthorized,
				fmt.Sprintf("API key rejected by %s: %s", host, msg),
				"Check the api_key for this firewall.")
		}
		return nil, errors.NewRemote(code, msg)
	default:
		return nil, errors.New(errors.ErrMalformed,
			fmt.Sprintf("Response from %s has unexpected status %q", host, status), "")
	}
}

// remoteCode extracts the numeric code attribute, 0 when absent.
func remoteCode(response map[string]any) int {
	if s, ok := response["@code"].(string); ok {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return 0
}

// remoteMessage digs the error text out of the envelope. PAN-OS wraps it
// inconsistently: <msg> may hold text, a <line> child, or a list of lines.
func remoteMessage(response map[string]any) string {
	msg, ok := response["msg"]
	if !ok {
		if result, ok := response["result"].(map[string]any); ok {
			msg = result["msg"]
		}
	}

	switch v := msg.(type) {
	case string:
		return v
	case map[string]any:
		switch line := v["line"].(type) {
		case string:
			return line
		case []any:
			parts := make([]string, 0, len(line))
			for _, l := range line {
				if s, ok := l.(string); ok {
					parts = append(parts, s)
				}
			}
			return strings.Join(parts, "; ")
		}
	}
	return "unknown error"
}
