package supervise

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	geoEndpoint    = "https://ipapi.co/json/"
	mirrorIndexURL = "https://mirrors.aliyun.com/pypi/simple/"
	geoTimeout     = 3 * time.Second
)

// detectMirror decides whether the dependency sync should use a regional
// package-index mirror. Any failure falls back to the default index with a
// warning; region detection is never allowed to gate startup.
func detectMirror(ctx context.Context, endpoint string, logger *slog.Logger) string {
	client := &http.Client{Timeout: geoTimeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		logger.Warn("build region lookup request, using default index", "error", err)
		return ""
	}

	resp, err := client.Do(req)
	if err != nil {
		logger.Warn("region lookup failed, using default index", "error", err)
		return ""
	}
	defer resp.Body.Close()

	var payload struct {
		CountryCode string `json:"country_code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		logger.Warn("decode region lookup, using default index", "error", err)
		return ""
	}

	if strings.EqualFold(payload.CountryCode, "CN") {
		logger.Info("using package index mirror", "index", mirrorIndexURL)
		return mirrorIndexURL
	}
	return ""
}
