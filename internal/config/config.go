// Package config holds configuration blocks shared by the commands.
package config

import "time"

// PostgresConfig is optional for every command; an empty DSN disables the
// database.
type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"                default:""`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS"     default:"10"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS"     default:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" default:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME"  default:"30m"`
}

func (c PostgresConfig) Enabled() bool {
	return c.DSN != ""
}

// FilesConfig locates the files the front end and the end-of-day processor
// exchange.
type FilesConfig struct {
	Users   string `env:"VAPOR_USERS_FILE"  default:"users.json"`
	Market  string `env:"VAPOR_MARKET_FILE" default:"market.json"`
	Ledger  string `env:"VAPOR_LEDGER_FILE" default:"daily.txt"`
	Stats   string `env:"VAPOR_STATS_FILE"  default:"stats.txt"`
	Archive string `env:"VAPOR_ARCHIVE_DIR" default:"archive"`
}
