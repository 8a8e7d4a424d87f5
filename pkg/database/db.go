package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Config describes the PostgreSQL connection. DSN wins over the discrete fields.
type Config struct {
	DSN            string
	Host           string
	Port           int
	Name           string
	User           string
	Password       string
	SSLMode        string
	MaxConns       int
	Timeout        time.Duration
	TimeZone       string
	ClientEncoding string
	AutoMigrate    bool
}

// ConnString returns the DSN, building a postgres:// URL from the discrete
// fields when no DSN was configured. TimeZone and ClientEncoding travel as
// run-time parameters so every pooled connection starts with them.
func (c Config) ConnString() string {
	if c.DSN != "" {
		return c.withSessionParams(c.DSN)
	}
	port := c.Port
	if port == 0 {
		port = 5432
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	q := url.Values{"sslmode": {sslmode}}
	for k, v := range c.sessionParams() {
		q.Set(k, v)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, fmt.Sprint(port)),
		Path:     "/" + c.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func (c Config) sessionParams() map[string]string {
	p := make(map[string]string, 2)
	if c.TimeZone != "" {
		p["timezone"] = c.TimeZone
	}
	if c.ClientEncoding != "" {
		p["client_encoding"] = c.ClientEncoding
	}
	return p
}

// withSessionParams adds the session parameters to dsn unless it already
// sets them. Both URL and key=value forms are accepted.
func (c Config) withSessionParams(dsn string) string {
	params := c.sessionParams()
	if len(params) == 0 {
		return dsn
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		q := u.Query()
		for k, v := range params {
			if !q.Has(k) {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
		return u.String()
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.Contains(dsn, k+"=") {
			continue
		}
		dsn += " " + k + "=" + quoteValue(params[k])
	}
	return dsn
}

// quoteValue quotes a key=value connection string value.
func quoteValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

// Connect opens a *sql.DB and verifies connectivity with a ping
func Connect(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}
