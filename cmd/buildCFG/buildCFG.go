package buildCFG

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"
)

// Source is the subset of *config.Config the builders read from.
type Source interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type ServerConfig struct {
	Port            string
	Mode            string
	RateLimitRPS    float64
	RateLimitBurst  int
	ShutdownTimeout time.Duration
	Driver          string
	ShareBaseURL    string
}

type DBConfig struct {
	MasterDSN     string
	SlaveDSNs     []string
	Options       *dbpg.Options
	MigrationsDir string
}

type RabbitConfig struct {
	Enabled  bool
	Url      string
	Exchange string
	Queue    string
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func BuildServerConfig(cfg Source, log *zerolog.Logger) (ServerConfig, error) {
	sc := ServerConfig{
		Port:           cfg.GetString("server.port"),
		Mode:           cfg.GetString("server.mode"),
		RateLimitBurst: cfg.GetInt("server.rate_limit_burst"),
		Driver:         strings.ToLower(cfg.GetString("storage.driver")),
		ShareBaseURL:   cfg.GetString("share.base_url"),
	}
	if sc.Port == "" {
		sc.Port = "8080"
		log.Warn().Msg("server.port is not set, using 8080")
	}
	if sc.Mode == "" {
		sc.Mode = "release"
	}
	if sc.Driver == "" {
		sc.Driver = DriverPostgres
	}
	if sc.Driver != DriverPostgres && sc.Driver != DriverMemory {
		return sc, fmt.Errorf("storage.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, sc.Driver)
	}

	var err error
	if sc.RateLimitRPS, err = parseFloat(cfg.GetString("server.rate_limit_rps")); err != nil {
		return sc, fmt.Errorf("server.rate_limit_rps: %w", err)
	}
	if sc.RateLimitRPS > 0 && sc.RateLimitBurst <= 0 {
		sc.RateLimitBurst = 1
	}
	if sc.ShutdownTimeout, err = parseDuration(cfg.GetString("server.shutdown_timeout"), 10*time.Second); err != nil {
		return sc, fmt.Errorf("server.shutdown_timeout: %w", err)
	}

	log.Info().
		Str("port", sc.Port).
		Str("driver", sc.Driver).
		Float64("rate_limit_rps", sc.RateLimitRPS).
		Msg("Server config loaded")
	return sc, nil
}

func BuildDBConfig(cfg Source, log *zerolog.Logger) (DBConfig, error) {
	dc := DBConfig{
		MasterDSN:     cfg.GetString("postgres.master_dsn"),
		MigrationsDir: cfg.GetString("postgres.migrations"),
		Options: &dbpg.Options{
			MaxOpenConns: cfg.GetInt("postgres.max_open_conns"),
			MaxIdleConns: cfg.GetInt("postgres.max_idle_conns"),
		},
	}
	if dc.MasterDSN == "" {
		return dc, errors.New("postgres.master_dsn is required")
	}
	if dc.MigrationsDir == "" {
		dc.MigrationsDir = "migrations/postgres"
	}
	if dc.Options.MaxOpenConns <= 0 {
		dc.Options.MaxOpenConns = 10
	}
	if dc.Options.MaxIdleConns <= 0 {
		dc.Options.MaxIdleConns = 5
	}

	lifetime, err := parseDuration(cfg.GetString("postgres.conn_max_lifetime"), 5*time.Minute)
	if err != nil {
		return dc, fmt.Errorf("postgres.conn_max_lifetime: %w", err)
	}
	dc.Options.ConnMaxLifetime = lifetime

	log.Info().
		Int("max_open_conns", dc.Options.MaxOpenConns).
		Int("max_idle_conns", dc.Options.MaxIdleConns).
		Dur("conn_max_lifetime", lifetime).
		Msg("DB config loaded")
	return dc, nil
}

func BuildRabbitConfig(cfg Source, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Enabled:  cfg.GetBool("rabbit.enabled"),
		Url:      cfg.GetString("rabbit.url"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if !rc.Enabled {
		log.Info().Msg("RabbitMQ disabled, participation notices are not published")
		return rc, nil
	}
	if rc.Url == "" {
		return rc, errors.New("rabbit.url is required when rabbit.enabled is set")
	}
	if rc.Exchange == "" {
		rc.Exchange = "meetpoll.participations"
	}
	if rc.Queue == "" {
		rc.Queue = "meetpoll.organizer-digest"
	}
	log.Info().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("RabbitMQ config loaded")
	return rc, nil
}

func BuildMailConfig(cfg Source, log *zerolog.Logger) (MailConfig, error) {
	mc := MailConfig{
		Host:     cfg.GetString("mail.host"),
		Port:     cfg.GetInt("mail.port"),
		Username: cfg.GetString("mail.username"),
		Password: cfg.GetString("mail.password"),
		From:     cfg.GetString("mail.from"),
	}
	if mc.Host == "" {
		log.Info().Msg("mail.host is not set, digests are only logged")
		return mc, nil
	}
	if mc.Port == 0 {
		mc.Port = 587
	}
	if mc.From == "" {
		return mc, errors.New("mail.from is required when mail.host is set")
	}
	return mc, nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", s)
	}
	return d, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, fmt.Errorf("must not be negative, got %s", s)
	}
	return f, nil
}
