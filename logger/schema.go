package logger

import "strings"

const (
	// LevelDebug represents the debug severity level name.
	LevelDebug = "DEBUG"
	// LevelInfo represents the info severity level name.
	LevelInfo = "INFO"
	// LevelWarn represents the warning severity level name.
	LevelWarn = "WARN"
	// LevelError represents the error severity level name.
	LevelError = "ERROR"
)

var levelNames = map[string]string{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

// statusValues is the closed vocabulary for the status field; outcome uses
// a subset of it.
var statusValues = map[string]bool{
	"ok":           true,
	"fail":         true,
	"skip":         true,
	"drop":         true,
	"retry":        true,
	"rate_limited": true,
	"cancelled":    true,
}

var outcomeValues = map[string]bool{
	"ok":           true,
	"fail":         true,
	"drop":         true,
	"cancelled":    true,
	"rate_limited": true,
}

func normalizeLevel(level string) string {
	if level == "" {
		return LevelInfo
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

func normalizeStatus(status string) (string, bool) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return "", false
	}
	return status, statusValues[status]
}

func normalizeOutcome(outcome string) (string, bool) {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	if !outcomeValues[outcome] {
		return "", false
	}
	return outcome, true
}

// defaultKeyOrder pins the stable prefix of every log line; keys outside
// the list render after it in alphabetical order.
var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"state",
	"flow",
	"step",
	"question",
	"cb_key",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"collection",
	"backend",
	"lang",
	"payload",
	"username",
	"mode",
	"listen",
	"public_url",
	"host",
	"port",
	"db",
	"err",
	"err_code",
	"cause",
	"attempts",
	"backoff_ms",
}
