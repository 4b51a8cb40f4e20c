package i18n

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/condor-estates/condorbot/config"
)

func TestResolveHint(t *testing.T) {
	cases := []struct {
		hint, def, want string
	}{
		{"en", "ru", "en"},
		{"uk", "ru", "ru"},
		{"", "ru", "ru"},
		{"de", "ru", "de"},
	}
	for _, c := range cases {
		if got := ResolveHint(c.hint, c.def); got != c.want {
			t.Errorf("ResolveHint(%q, %q) = %q, want %q", c.hint, c.def, got, c.want)
		}
	}
}

func TestLocalizeShortCircuitsSourceLanguage(t *testing.T) {
	g := NewGoogle(config.TranslateConfig{
		Endpoint:       "http://invalid.example",
		SourceLanguage: "ru",
		TimeoutMS:      100,
	})
	// No request may leave the process for ru targets.
	g.client.Transport = failingTransport{}

	if got := g.Localize(context.Background(), "Привет", "ru"); got != "Привет" {
		t.Fatalf("source-language target must pass text through, got %q", got)
	}
	if got := g.Localize(context.Background(), "Привет", ""); got != "Привет" {
		t.Fatalf("empty target must pass text through, got %q", got)
	}
}

func TestLocalizeFallsBackOnFailure(t *testing.T) {
	g := NewGoogle(config.TranslateConfig{
		Endpoint:       "http://invalid.example",
		SourceLanguage: "ru",
		TimeoutMS:      100,
	})
	g.client.Transport = failingTransport{}

	if got := g.Localize(context.Background(), "Привет", "en"); got != "Привет" {
		t.Fatalf("gateway failure must yield source text, got %q", got)
	}
}

func TestLocalizeParsesSegments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tl"); got != "en" {
			t.Errorf("unexpected target language %q", got)
		}
		_, _ = w.Write([]byte(`[[["Hello, ","Привет, ",null],["world","мир",null]],null,"ru"]`))
	}))
	defer srv.Close()

	g := NewGoogle(config.TranslateConfig{
		Endpoint:       srv.URL,
		SourceLanguage: "ru",
		TimeoutMS:      1000,
	})
	if got := g.Localize(context.Background(), "Привет, мир", "en"); got != "Hello, world" {
		t.Fatalf("unexpected translation %q", got)
	}
}

func TestLocalizeFallsBackOnBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()

	g := NewGoogle(config.TranslateConfig{
		Endpoint:       srv.URL,
		SourceLanguage: "ru",
		TimeoutMS:      1000,
	})
	if got := g.Localize(context.Background(), "Привет", "en"); got != "Привет" {
		t.Fatalf("bad payload must yield source text, got %q", got)
	}
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("transport must not be used")
}
