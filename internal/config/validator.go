package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// ValidationResult holds the results of configuration validation.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(field, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (r *ValidationResult) AddWarning(field, message string) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Message: message})
}

// TileKinds lists the layer names accepted by tile_bindings.
var TileKinds = []string{"floor", "wall", "region", "effect", "object", "ambient", "sound_effect"}

// Validate performs validation of the configuration. Call it after
// ApplySecrets so credentials from the environment are seen.
func Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}

	validateConnection(&cfg.Connection, result)
	validateApplicationData(&cfg.ApplicationData, result)

	return result
}

func validateConnection(data *ConnectionConfig, result *ValidationResult) {
	if strings.TrimSpace(data.Host) == "" {
		result.AddError("connection.host", "server host is required")
	}
	validatePort(data.Port, "connection.port", result)

	if data.HandshakeTimeoutSec < 1 {
		result.AddError("connection.handshake_timeout_sec", "handshake timeout must be at least 1 second")
	}
	if data.WriteTimeoutSec < 1 {
		result.AddWarning("connection.write_timeout_sec", "writes have no deadline and may block on a stalled server")
	}

	if data.ReconnectDelaySec < 0 {
		result.AddError("connection.reconnect_delay_sec", "reconnect delay cannot be negative")
	} else if data.ReconnectDelaySec > 0 && data.ReconnectDelaySec < 5 {
		result.AddWarning("connection.reconnect_delay_sec", "reconnecting faster than every 5 seconds may get the client throttled")
	}

	cred := data.Credential
	switch cred.Kind {
	case CredentialPlain:
		if data.AutoLogin && (cred.Name == "" || cred.Password == "") {
			result.AddError("connection.credential", "auto login needs a name and "+EnvPassword)
		}
	case CredentialLinked:
		if data.AutoLogin && (cred.Name == "" || cred.Account == "" || cred.AccountPassword == "") {
			result.AddError("connection.credential", "auto login needs a name, an account and "+EnvAccountPassword)
		}
	default:
		result.AddError("connection.credential.kind",
			fmt.Sprintf("unknown credential kind %q (expected %s or %s)", cred.Kind, CredentialPlain, CredentialLinked))
	}
	if strings.ContainsAny(cred.Name+cred.Password+cred.Account+cred.AccountPassword, " \n") {
		result.AddError("connection.credential", "credentials may not contain spaces or newlines")
	}

	seen := make(map[int]bool)
	for i, b := range data.TileBindings {
		field := fmt.Sprintf("connection.tile_bindings[%d]", i)
		if b.Opcode < 0 || b.Opcode > 95 || b.Opcode == 61 {
			result.AddError(field, fmt.Sprintf("opcode %d cannot carry tiles", b.Opcode))
		}
		if !isTileKind(b.Kind) {
			result.AddError(field, fmt.Sprintf("unknown tile kind %q", b.Kind))
		}
		if seen[b.Opcode] {
			result.AddWarning(field, fmt.Sprintf("opcode %d bound more than once, the last binding wins", b.Opcode))
		}
		seen[b.Opcode] = true
	}
}

func validateApplicationData(data *ApplicationData, result *ValidationResult) {
	switch strings.ToLower(data.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		result.AddWarning("application_data.logging.level",
			fmt.Sprintf("unknown log level %q, info will be used", data.Logging.Level))
	}

	if data.API.Enabled {
		validatePort(data.API.Port, "application_data.api.port", result)
		if data.API.RateLimitRPS < 1 {
			result.AddWarning("application_data.api.rate_limit_rps",
				"rate limit is disabled (0 RPS), this may expose the API to abuse")
		}
		if data.API.Token == "" && data.API.Host != "127.0.0.1" && data.API.Host != "localhost" {
			result.AddWarning("application_data.api", "API is reachable off-host without "+EnvAPIToken)
		}
	}

	if data.MQTT.Enabled {
		if strings.TrimSpace(data.MQTT.BrokerURL) == "" {
			result.AddError("application_data.mqtt.broker_url", "MQTT broker URL is required when enabled")
		}
		if data.MQTT.Port < 1 || data.MQTT.Port > 65535 {
			result.AddError("application_data.mqtt.port", "invalid MQTT port")
		}
		if strings.ContainsAny(data.MQTT.TopicPrefix, "#+") {
			result.AddError("application_data.mqtt.topic_prefix", "topic prefix may not contain wildcards")
		}
	}

	if data.Capture.Enabled && strings.TrimSpace(data.Capture.Path) == "" {
		result.AddError("application_data.capture.path", "capture path is required when capture is enabled")
	}
	if data.Capture.RetentionDays < 0 {
		result.AddError("application_data.capture.retention_days", "retention cannot be negative")
	}
	if _, _, ok := ParseClock(data.Capture.CleanupTime); data.Capture.RetentionDays > 0 && !ok {
		result.AddWarning("application_data.capture.cleanup_time",
			fmt.Sprintf("invalid cleanup time %q, 04:00 will be used", data.Capture.CleanupTime))
	}

	switch data.Bus.FailurePolicy {
	case "", "continue", "abort":
	default:
		result.AddError("application_data.bus.failure_policy",
			fmt.Sprintf("unknown failure policy %q (expected continue or abort)", data.Bus.FailurePolicy))
	}
}

func validatePort(port int, field string, result *ValidationResult) {
	if port < 1 || port > 65535 {
		result.AddError(field, fmt.Sprintf("invalid port number: %d (must be 1-65535)", port))
		return
	}
	if port < 1024 {
		result.AddWarning(field,
			fmt.Sprintf("port %d is a privileged port, may require elevated permissions", port))
	}
}

func isTileKind(kind string) bool {
	for _, k := range TileKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ParseClock parses "HH:MM" in 24-hour time.
func ParseClock(s string) (hour, minute int, ok bool) {
	h, m, found := strings.Cut(s, ":")
	if !found {
		return 0, 0, false
	}
	hour, err1 := strconv.Atoi(h)
	minute, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
