package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Endpoint describes a discovered debugging endpoint.
type Endpoint struct {
	WebSocketURL string
	Version      string
	UserAgent    string
}

// Discover resolves the websocket debugging URL for a browser endpoint. The
// supplied URL may be an http(s) base or an existing ws(s) URL; the actual
// websocket URL is fetched from /json/version, with its host rewritten to
// the host that was asked for (the advertised one is often unreachable
// across container boundaries).
func Discover(browserURL string) (*Endpoint, error) {
	parsed, err := url.Parse(browserURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse browser URL: %w", err)
	}

	baseURL := browserURL
	if strings.HasPrefix(baseURL, "ws:") {
		baseURL = "http:" + baseURL[3:]
	} else if strings.HasPrefix(baseURL, "wss:") {
		baseURL = "https:" + baseURL[4:]
	}

	if i := strings.LastIndex(baseURL, "/devtools/"); i != -1 {
		baseURL = baseURL[:i]
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(baseURL + "/json/version")
	if err != nil {
		return nil, fmt.Errorf("failed to get browser info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get browser info: HTTP %d", resp.StatusCode)
	}

	var info map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to parse browser info: %w", err)
	}

	ep := &Endpoint{}
	if v, ok := info["Browser"].(string); ok {
		ep.Version = v
	}
	if v, ok := info["User-Agent"].(string); ok {
		ep.UserAgent = v
	}

	wsURL, _ := info["webSocketDebuggerUrl"].(string)
	if wsURL == "" {
		return nil, fmt.Errorf("webSocketDebuggerUrl not found in browser info response")
	}
	ep.WebSocketURL = replaceHost(wsURL, parsed.Host)

	return ep, nil
}

func replaceHost(rawURL, newHost string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || newHost == "" {
		return rawURL
	}
	parsed.Host = newHost
	return parsed.String()
}
