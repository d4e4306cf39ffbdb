package db

import (
	"net"
	"net/url"
	"strconv"

	"aptbot/internal/config"
)

// BuildDSN renders the sqlserver:// connection URL for cfg.
func BuildDSN(cfg config.DBConfig) string {
	q := url.Values{}
	if cfg.Name != "" {
		q.Set("database", cfg.Name)
	}
	q.Set("TrustServerCertificate", strconv.FormatBool(cfg.TrustServerCertificate))
	if cfg.Encrypt != "" {
		q.Set("encrypt", cfg.Encrypt)
	}
	if cfg.ConnTimeout > 0 {
		q.Set("connection timeout", strconv.Itoa(int(cfg.ConnTimeout.Seconds())))
	}
	q.Set("app name", config.AppName)

	host := cfg.Server
	if cfg.Port > 0 {
		host = net.JoinHostPort(cfg.Server, strconv.Itoa(cfg.Port))
	}

	u := &url.URL{
		Scheme:   Driver,
		Host:     host,
		RawQuery: q.Encode(),
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u.String()
}
