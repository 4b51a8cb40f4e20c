package config

import "testing"

func minimal() *Config {
	cfg := &Config{}
	cfg.Telegram.Token = "token"
	cfg.Bot.ManagerGroup = -100
	return cfg
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := minimal()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("expected longpoll default, got %q", cfg.Telegram.RunMode)
	}
	if cfg.Store.Backend != BackendFile || cfg.Store.FilePath != "data.json" {
		t.Fatalf("unexpected store defaults: %q %q", cfg.Store.Backend, cfg.Store.FilePath)
	}
	if cfg.Bot.DefaultLanguage != "ru" {
		t.Fatalf("expected ru default language, got %q", cfg.Bot.DefaultLanguage)
	}
	if cfg.Translate.SourceLanguage != "ru" || cfg.Translate.TimeoutMS != 5000 {
		t.Fatalf("unexpected translate defaults: %q %d", cfg.Translate.SourceLanguage, cfg.Translate.TimeoutMS)
	}
}

func TestNormalizeRequiresToken(t *testing.T) {
	cfg := minimal()
	cfg.Telegram.Token = ""
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestNormalizeRunModeAlias(t *testing.T) {
	cfg := minimal()
	cfg.Telegram.RunMode = "polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("expected polling alias to map to longpoll, got %q", cfg.Telegram.RunMode)
	}
}

func TestNormalizeWebhookRequiresURL(t *testing.T) {
	cfg := minimal()
	cfg.Telegram.RunMode = RunModeWebhook
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for webhook mode without url")
	}
}

func TestNormalizeRejectsUnknownBackend(t *testing.T) {
	cfg := minimal()
	cfg.Store.Backend = "mongo"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNormalizeRejectsBadExcludeUpdate(t *testing.T) {
	cfg := minimal()
	cfg.RateLimit.ExcludeUpdates = []string{"inline"}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for invalid exclude_updates value")
	}
}
