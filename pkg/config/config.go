package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"fairway/pkg/client"
	"fairway/pkg/logger"
	"fairway/pkg/slot"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	LockTTL time.Duration

	PlayMinutes9    int
	ChargeMinutes9  int
	PlayMinutes18   int
	ChargeMinutes18 int

	MemberPrice9        int
	MemberPrice18       int
	NonMemberPrice9     int
	NonMemberPrice18    int
	DoctorsNoteDiscount int

	MaxAdvanceDays int

	RentalEventsTopic    string
	RentalEventsDLQTopic string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		LockTTL: getEnvDuration(EnvLockTTL, DefaultLockTTL),

		PlayMinutes9:    getEnvNum(EnvPlayMinutes9, DefaultPlayMinutes9),
		ChargeMinutes9:  getEnvNum(EnvChargeMinutes9, DefaultChargeMinutes9),
		PlayMinutes18:   getEnvNum(EnvPlayMinutes18, DefaultPlayMinutes18),
		ChargeMinutes18: getEnvNum(EnvChargeMinutes18, DefaultChargeMinutes18),

		MemberPrice9:        getEnvNum(EnvMemberPrice9, DefaultMemberPrice9),
		MemberPrice18:       getEnvNum(EnvMemberPrice18, DefaultMemberPrice18),
		NonMemberPrice9:     getEnvNum(EnvNonMemberPrice9, DefaultNonMemberPrice9),
		NonMemberPrice18:    getEnvNum(EnvNonMemberPrice18, DefaultNonMemberPrice18),
		DoctorsNoteDiscount: getEnvNum(EnvDoctorsNoteDiscount, DefaultDoctorsNoteDiscount),

		MaxAdvanceDays: getEnvNum(EnvMaxAdvanceDays, DefaultMaxAdvanceDays),

		RentalEventsTopic:    getEnvStr(EnvRentalEventsTopic, DefaultRentalEventsTopic),
		RentalEventsDLQTopic: getEnvStr(EnvRentalEventsDLQTopic, DefaultRentalEventsDLQTopic),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// SlotPolicy builds the injected duration policy table. Everything that
// reasons about occupancy must go through this table.
func (cfg *Config) SlotPolicy() slot.Policy {
	return slot.Policy{
		9: {
			Play:   time.Duration(cfg.PlayMinutes9) * time.Minute,
			Charge: time.Duration(cfg.ChargeMinutes9) * time.Minute,
		},
		18: {
			Play:   time.Duration(cfg.PlayMinutes18) * time.Minute,
			Charge: time.Duration(cfg.ChargeMinutes18) * time.Minute,
		},
	}
}

// Price returns the rental price in NOK for the given holes and renter
// profile, floored at zero. Unknown hole counts price at zero; validation
// rejects them before pricing runs.
func (cfg *Config) Price(holes int, isMember, hasDoctorsNote bool) int {
	var base int
	switch {
	case holes == 9 && isMember:
		base = cfg.MemberPrice9
	case holes == 9:
		base = cfg.NonMemberPrice9
	case holes == 18 && isMember:
		base = cfg.MemberPrice18
	case holes == 18:
		base = cfg.NonMemberPrice18
	default:
		return 0
	}
	if hasDoctorsNote {
		base -= cfg.DoctorsNoteDiscount
	}
	return max(0, base)
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errs = append(errs, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errs = append(errs, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errs = append(errs, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	for name, d := range map[string]time.Duration{
		"RequestTimeout":  cfg.RequestTimeout,
		"IdempotencyTTL":  cfg.IdempotencyTTL,
		"ReadTimeout":     cfg.ReadTimeout,
		"WriteTimeout":    cfg.WriteTimeout,
		"IdleTimeout":     cfg.IdleTimeout,
		"ShutdownTimeout": cfg.ShutdownTimeout,
		"LockTTL":         cfg.LockTTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.PlayMinutes9 <= 0 || cfg.PlayMinutes18 <= 0 {
		errs = append(errs, fmt.Sprintf("play minutes must be positive, got: 9=%d 18=%d", cfg.PlayMinutes9, cfg.PlayMinutes18))
	}
	if cfg.ChargeMinutes9 < 0 || cfg.ChargeMinutes18 < 0 {
		errs = append(errs, fmt.Sprintf("charge minutes cannot be negative, got: 9=%d 18=%d", cfg.ChargeMinutes9, cfg.ChargeMinutes18))
	}

	if cfg.MemberPrice9 < 0 || cfg.MemberPrice18 < 0 || cfg.NonMemberPrice9 < 0 || cfg.NonMemberPrice18 < 0 {
		errs = append(errs, "prices cannot be negative")
	}
	if cfg.DoctorsNoteDiscount < 0 {
		errs = append(errs, fmt.Sprintf("DoctorsNoteDiscount cannot be negative, got: %d", cfg.DoctorsNoteDiscount))
	}

	if cfg.MaxAdvanceDays <= 0 {
		errs = append(errs, fmt.Sprintf("MaxAdvanceDays must be positive, got: %d", cfg.MaxAdvanceDays))
	}

	if cfg.RentalEventsTopic == "" {
		errs = append(errs, "RentalEventsTopic cannot be empty")
	}

	if len(errs) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, e := range errs {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, e)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"lock_ttl", cfg.LockTTL,
		"play_minutes_9", cfg.PlayMinutes9,
		"charge_minutes_9", cfg.ChargeMinutes9,
		"play_minutes_18", cfg.PlayMinutes18,
		"charge_minutes_18", cfg.ChargeMinutes18,
		"max_advance_days", cfg.MaxAdvanceDays,
		"rental_events_topic", cfg.RentalEventsTopic,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
