package provider

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Njuelle/brief-to-plan/internal/errors"
)

// Option lookups tolerate the value types produced by YAML, JSON and env decoding.

func stringOption(cfg map[string]any, key, def string) string {
	if v, ok := cfg[key].(string); ok && v != "" {
		return v
	}
	return def
}

func intOption(cfg map[string]any, key string, def int) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func durationOption(cfg map[string]any, key string, def time.Duration) time.Duration {
	switch v := cfg[key].(type) {
	case time.Duration:
		return v
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	}
	return def
}

func stringsOption(cfg map[string]any, key string) []string {
	switch v := cfg[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return nil
}

func requireAPIKey(config *ProviderConfig) (string, error) {
	key := stringOption(config.Config, "api_key", "")
	if key == "" {
		return "", errors.NewProviderConfigError(config.Name, "api_key is required")
	}
	return key, nil
}
