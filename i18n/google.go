package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/condor-estates/condorbot/config"
	"github.com/condor-estates/condorbot/logger"
)

// GoogleTranslator localizes text through the public gtx translate endpoint.
// It short-circuits when the target matches the source language and falls
// back to the source text on any transport or decode failure.
type GoogleTranslator struct {
	endpoint string
	source   string
	client   *http.Client
}

func NewGoogle(cfg config.TranslateConfig) *GoogleTranslator {
	return &GoogleTranslator{
		endpoint: cfg.Endpoint,
		source:   cfg.SourceLanguage,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

func (g *GoogleTranslator) Localize(ctx context.Context, text, target string) string {
	if target == "" || target == g.source || text == "" {
		return text
	}

	start := time.Now()
	out, err := g.translate(ctx, text, target)
	if err != nil {
		logger.I18N.Warn("translate fallback",
			slog.String("event", "translate.request"),
			slog.String("lang", target),
			slog.String("outcome", "fallback"),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
			slog.String("err", err.Error()),
		)
		return text
	}
	if logger.ShouldSampleDebug() {
		logger.I18N.Debug("translate ok",
			slog.String("event", "translate.request"),
			slog.String("lang", target),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	}
	return out
}

func (g *GoogleTranslator) translate(ctx context.Context, text, target string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", g.source)
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	return parseSegments(body)
}

// parseSegments walks the nested gtx payload: the first element is a list
// of segments, each segment a list whose first element is the translated
// chunk.
func parseSegments(body []byte) (string, error) {
	var payload []any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("empty payload")
	}
	segments, ok := payload[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected payload shape")
	}
	var b strings.Builder
	for _, raw := range segments {
		seg, ok := raw.([]any)
		if !ok || len(seg) == 0 {
			continue
		}
		if chunk, ok := seg[0].(string); ok {
			b.WriteString(chunk)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no translated segments")
	}
	return b.String(), nil
}
