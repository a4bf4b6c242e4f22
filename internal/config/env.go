package config

import (
	"os"
	"strconv"
	"strings"

	"ProfileFinder/internal/auth"
)

// applyEnv 使用 FINDER_* 环境变量覆盖配置。
func (c *Config) applyEnv() {
	setString(&c.Server.Address, "FINDER_SERVER_ADDRESS")
	setString(&c.Metrics.Address, "FINDER_METRICS_ADDRESS")
	setString(&c.HTTP.UserAgent, "FINDER_USER_AGENT")

	setString(&c.Logging.Level, "FINDER_LOG_LEVEL")
	setString(&c.Logging.Format, "FINDER_LOG_FORMAT")
	if v := lookup("FINDER_LOG_OUTPUT"); v != "" {
		c.Logging.OutputPaths = splitList(v)
	}
	if v := lookup("FINDER_AUDIT_LOG"); v != "" {
		c.Logging.Audit.Enabled = true
		c.Logging.Audit.Path = v
	}

	setString(&c.Probe.BaseURL, "FINDER_PROBE_BASE_URL")
	setFloat(&c.Probe.TimeoutSeconds, "FINDER_PROBE_TIMEOUT")
	setString(&c.Probe.Cache.Driver, "FINDER_PROBE_CACHE")
	setString(&c.Probe.Cache.Redis.Address, "FINDER_PROBE_CACHE_REDIS")

	setFloat(&c.Search.TimeoutSeconds, "FINDER_SEARCH_TIMEOUT")
	setFloat(&c.Search.RateLimit, "FINDER_SEARCH_RATE")

	setInt(&c.Lookup.Workers, "FINDER_WORKERS")
	setInt(&c.Lookup.MaxRetries, "FINDER_MAX_RETRIES")
	setString(&c.Lookup.Store.Driver, "FINDER_STORE_DRIVER")
	setString(&c.Lookup.Store.DSN, "FINDER_STORE_DSN")
	setString(&c.Lookup.Queue.Driver, "FINDER_QUEUE_DRIVER")
	setString(&c.Lookup.Queue.Redis.Address, "FINDER_QUEUE_REDIS")
	setString(&c.Lookup.Queue.RabbitMQ.URL, "FINDER_QUEUE_RABBITMQ")

	setString(&c.Alerting.WebhookURL, "FINDER_ALERT_WEBHOOK")

	// FINDER_API_TOKEN 追加一个拥有全部权限的 token 并开启认证。
	if v := lookup("FINDER_API_TOKEN"); v != "" {
		c.Auth.Mode = auth.ModeToken
		c.Auth.Tokens = append(c.Auth.Tokens, auth.Token{Name: "env", Secret: v, Permissions: []string{auth.PermissionAll}})
	}
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if v := lookup(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := lookup(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := lookup(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
