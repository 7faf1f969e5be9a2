package resolve

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// IsURL reports whether filename looks like an http(s) URL rather than a
// local path, the same heuristic kubectl uses for -f arguments.
func IsURL(filename string) bool {
	return strings.HasPrefix(filename, "http://") || strings.HasPrefix(filename, "https://")
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

// ReadRemoteFileContent fetches url and returns its body. Non-2xx responses
// are reported as errors rather than handed to the YAML decoder.
func ReadRemoteFileContent(url string) ([]byte, error) {
	resp, err := httpClient.Get(url) //nolint:noctx,gosec
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body of %s: %w", url, err)
	}
	return body, nil
}
