// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/LerianStudio/dbguard/internal/adapters/http/in"
	"github.com/LerianStudio/dbguard/pkg"
	"github.com/LerianStudio/dbguard/pkg/circuitbreaker"
	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/health"
	"github.com/LerianStudio/dbguard/pkg/model"
	"github.com/LerianStudio/dbguard/pkg/monitor"
	"github.com/LerianStudio/dbguard/pkg/postgres"
	"github.com/LerianStudio/dbguard/pkg/reliable"
	"github.com/LerianStudio/dbguard/pkg/timeout"

	libCommons "github.com/LerianStudio/lib-commons/v3/commons"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Config is the top level configuration struct for the entire application.
// Float knobs, and int knobs where zero is a valid setting, are kept as strings;
// the env loader only handles strings, ints and bools.
type Config struct {
	EnvName                 string `env:"ENV_NAME"`
	ServerAddress           string `env:"SERVER_ADDRESS"`
	LogLevel                string `env:"LOG_LEVEL"`
	Version                 string `env:"VERSION"`
	OtelServiceName         string `env:"OTEL_RESOURCE_SERVICE_NAME"`
	OtelLibraryName         string `env:"OTEL_LIBRARY_NAME"`
	OtelServiceVersion      string `env:"OTEL_RESOURCE_SERVICE_VERSION"`
	OtelDeploymentEnv       string `env:"OTEL_RESOURCE_DEPLOYMENT_ENVIRONMENT"`
	OtelColExporterEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	EnableTelemetry         bool   `env:"ENABLE_TELEMETRY"`
	ProbeTimeoutMs          int    `env:"PROBE_TIMEOUT_MS" validate:"gte=0"`

	// Primary database
	DBDriver       string `env:"DB_DRIVER" validate:"omitempty,oneof=pgx pgx-stdlib postgres"`
	DBHost         string `env:"DB_HOST" validate:"required"`
	DBPort         int    `env:"DB_PORT" validate:"gte=0,lte=65535"`
	DBUser         string `env:"DB_USER"`
	DBPassword     string `env:"DB_PASSWORD"`
	DBName         string `env:"DB_NAME" validate:"required"`
	DBSSLMode      string `env:"DB_SSLMODE" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" validate:"gte=0"`
	DBMaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" validate:"gte=0"`

	// Circuit breaker and retry
	CBFailureThreshold     int    `env:"CB_FAILURE_THRESHOLD" validate:"gte=0"`
	CBSuccessThreshold     int    `env:"CB_SUCCESS_THRESHOLD" validate:"gte=0"`
	CBTimeoutMs            int    `env:"CB_TIMEOUT_MS" validate:"gte=0"`
	CBMonitorWindowMs      int    `env:"CB_MONITOR_WINDOW_MS" validate:"gte=0"`
	CBAttemptTimeoutMs     int    `env:"CB_ATTEMPT_TIMEOUT_MS" validate:"gte=0"`
	RetryAttempts          int    `env:"RETRY_ATTEMPTS" validate:"gte=0"`
	RetryInitialDelayMs    string `env:"RETRY_INITIAL_DELAY_MS" validate:"omitempty,number"`
	RetryMaxDelayMs        int    `env:"RETRY_MAX_DELAY_MS" validate:"gte=0"`
	RetryBackoffMultiplier string `env:"RETRY_BACKOFF_MULTIPLIER" validate:"omitempty,numeric"`

	// Per operation type timeout overrides
	TimeoutQueryMs          int `env:"TIMEOUT_QUERY_MS" validate:"gte=0"`
	TimeoutTransactionMs    int `env:"TIMEOUT_TRANSACTION_MS" validate:"gte=0"`
	TimeoutMigrationMs      int `env:"TIMEOUT_MIGRATION_MS" validate:"gte=0"`
	TimeoutConnectionMs     int `env:"TIMEOUT_CONNECTION_MS" validate:"gte=0"`
	TimeoutBatchInsertMs    int `env:"TIMEOUT_BATCH_INSERT_MS" validate:"gte=0"`
	TimeoutBatchUpdateMs    int `env:"TIMEOUT_BATCH_UPDATE_MS" validate:"gte=0"`
	TimeoutBatchDeleteMs    int `env:"TIMEOUT_BATCH_DELETE_MS" validate:"gte=0"`
	TimeoutAggregationMs    int `env:"TIMEOUT_AGGREGATION_MS" validate:"gte=0"`
	TimeoutFullTextSearchMs int `env:"TIMEOUT_FULL_TEXT_SEARCH_MS" validate:"gte=0"`
	TimeoutReportingMs      int `env:"TIMEOUT_REPORTING_MS" validate:"gte=0"`
	TimeoutHealthCheckMs    int `env:"TIMEOUT_HEALTH_CHECK_MS" validate:"gte=0"`
	TimeoutMetricsMs        int `env:"TIMEOUT_METRICS_MS" validate:"gte=0"`

	// Connection monitor and alerts
	MonitorIntervalMs                int    `env:"MONITOR_INTERVAL_MS" validate:"gte=0"`
	MonitorProbeTable                string `env:"MONITOR_PROBE_TABLE"`
	AlertsEnabled                    string `env:"ALERTS_ENABLED" validate:"omitempty,boolean"`
	AlertWebhookURL                  string `env:"ALERT_WEBHOOK_URL" validate:"omitempty,url"`
	AlertThresholdHealthScore        int    `env:"ALERT_THRESHOLD_HEALTH_SCORE" validate:"gte=0,lte=100"`
	AlertThresholdPoolUtilization    string `env:"ALERT_THRESHOLD_POOL_UTILIZATION" validate:"omitempty,numeric"`
	AlertThresholdQueryTimeMs        int    `env:"ALERT_THRESHOLD_QUERY_TIME_MS" validate:"gte=0"`
	AlertThresholdErrorRate          string `env:"ALERT_THRESHOLD_ERROR_RATE" validate:"omitempty,numeric"`
	AlertThresholdConnectionTimeouts int    `env:"ALERT_THRESHOLD_CONNECTION_TIMEOUTS" validate:"gte=0"`
	AlertCooldownMs                  int    `env:"ALERT_COOLDOWN_MS" validate:"gte=0"`

	// Optional shared cooldown store
	RedisHost     string `env:"REDIS_HOST"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" validate:"gte=0"`

	// Optional alert publisher
	RabbitURI               string `env:"RABBITMQ_URI"`
	RabbitMQHost            string `env:"RABBITMQ_HOST"`
	RabbitMQPortAMQP        string `env:"RABBITMQ_PORT_AMQP"`
	RabbitMQPortHost        string `env:"RABBITMQ_PORT_HOST"`
	RabbitMQHealthCheckURL  string `env:"RABBITMQ_HEALTH_CHECK_URL"`
	RabbitMQUser            string `env:"RABBITMQ_DEFAULT_USER"`
	RabbitMQPass            string `env:"RABBITMQ_DEFAULT_PASS"`
	RabbitMQAlertExchange   string `env:"RABBITMQ_ALERT_EXCHANGE"`
	RabbitMQAlertRoutingKey string `env:"RABBITMQ_ALERT_ROUTING_KEY"`
}

// InitServers wires the guarded database, the resilience layer and the probe server.
// Every resource acquired before a failure is released before the error is returned.
func InitServers() (*Service, error) {
	cfg, logger, err := initConfigAndLogger()
	if err != nil {
		return nil, err
	}

	var cleanups []func()

	fail := func(err error) (*Service, error) {
		runCleanups(cleanups)

		return nil, err
	}

	telemetry, telemetryCleanup, err := initTelemetry(cfg, logger)
	if err != nil {
		return fail(err)
	}

	cleanups = append(cleanups, telemetryCleanup)

	instruments := initMetrics(cfg, telemetry, logger)
	ctx := libCommons.ContextWithLogger(context.Background(), logger)

	dbClient, dbCleanup, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}

	cleanups = append(cleanups, dbCleanup)

	breakers := circuitbreaker.NewManager(cfg.BreakerConfig(), logger,
		circuitbreaker.WithMetrics(instruments),
		circuitbreaker.WithStateChange(breakerStateLogger(logger)),
	)
	breaker := breakers.GetOrCreate(breakerName(cfg))

	timeouts := timeout.NewHandler(cfg.TimeoutConfig(), logger, timeout.WithMetrics(instruments))

	monitorCfg := cfg.MonitorConfig()

	cooldown, cooldownCleanup, err := initCooldown(cfg, logger)
	if err != nil {
		return fail(err)
	}

	cleanups = append(cleanups, cooldownCleanup)

	notifiers, notifierCleanup, err := initNotifiers(cfg, monitorCfg.Alerts, logger)
	if err != nil {
		return fail(err)
	}

	cleanups = append(cleanups, notifierCleanup)

	connMonitor, err := monitor.New(dbClient, breaker, monitorCfg, logger,
		monitor.WithNotifier(notifiers),
		monitor.WithCooldownStore(cooldown),
		monitor.WithMetrics(instruments),
	)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize connection monitor: %w", err))
	}

	client, err := reliable.New(dbClient, breaker, timeouts, logger, reliable.WithRecorder(connMonitor))
	if err != nil {
		return fail(fmt.Errorf("failed to initialize reliable client: %w", err))
	}

	facade, err := health.NewFacade(connMonitor, breaker, timeouts, logger, health.WithVersion(cfg.BuildVersion()))
	if err != nil {
		return fail(fmt.Errorf("failed to initialize health facade: %w", err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		health.NewCollector(facade),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	httpApp := in.NewRoutes(in.RouteDeps{
		Logger:    logger,
		Telemetry: telemetry,
		Health:    &in.HealthHandler{Prober: facade, ProbeTimeout: cfg.ProbeTimeout()},
		Gatherer:  registry,
	})

	logger.Infof("Resilience layer ready: breaker %s, %d notifier(s), monitor every %s",
		breaker.Name(), notifiers.Len(), monitorCfg.Interval)

	return &Service{
		Server:          NewServer(cfg, httpApp, logger),
		Logger:          logger,
		Client:          client,
		Breakers:        breakers,
		Monitor:         connMonitor,
		Timeouts:        timeouts,
		Health:          facade,
		monitorInterval: monitorCfg.Interval,
		cleanups:        cleanups,
	}, nil
}

// Validate checks the struct tags and the knobs the tags cannot express.
// Field errors are reported by env variable name.
func (c *Config) Validate() error {
	v, trans := newConfigValidator()

	if err := v.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fe.Translate(trans))
		}

		return fmt.Errorf("invalid configuration: %w",
			pkg.ValidateBusinessError(constant.ErrInvalidConfig, "config", strings.Join(msgs, "; ")))
	}

	if c.MonitorProbeTable != "" {
		if _, err := monitor.BuildProbeQuery(c.MonitorProbeTable); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}

	if c.RabbitMQHost != "" && c.RabbitMQAlertExchange == "" {
		return fmt.Errorf("invalid configuration: %w",
			pkg.ValidateBusinessError(constant.ErrInvalidConfig, "RABBITMQ_ALERT_EXCHANGE", "required when RABBITMQ_HOST is set"))
	}

	return nil
}

// Address returns the probe server address, falling back to the default port.
func (c *Config) Address() string {
	if c.ServerAddress == "" {
		return constant.DefaultServerAddress
	}

	return c.ServerAddress
}

// BuildVersion returns the configured build version or the default.
func (c *Config) BuildVersion() string {
	if c.Version == "" {
		return constant.DefaultVersion
	}

	return c.Version
}

// ProbeTimeout bounds each probe request.
func (c *Config) ProbeTimeout() time.Duration {
	if c.ProbeTimeoutMs <= 0 {
		return constant.TimeoutHealthCheck
	}

	return ms(c.ProbeTimeoutMs)
}

// PostgresConfig maps the DB_* knobs to the connection settings.
func (c *Config) PostgresConfig() postgres.Config {
	cfg := postgres.Config{
		Driver:       c.DBDriver,
		Host:         c.DBHost,
		Port:         c.DBPort,
		User:         c.DBUser,
		Password:     c.DBPassword,
		Name:         c.DBName,
		SSLMode:      c.DBSSLMode,
		MaxOpenConns: c.DBMaxOpenConns,
		MaxIdleConns: c.DBMaxIdleConns,
	}

	if cfg.Driver == "" {
		cfg.Driver = constant.DriverPgx
	}

	if cfg.Port == 0 {
		cfg.Port = constant.PostgresDefaultPort
	}

	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = constant.PostgresMaxOpenConns
	}

	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = constant.PostgresMaxIdleConns
	}

	return cfg
}

// BreakerConfig maps the CB_* and RETRY_* knobs. Zero values keep the defaults.
func (c *Config) BreakerConfig() circuitbreaker.Config {
	cfg := circuitbreaker.DefaultConfig()

	setInt(&cfg.FailureThreshold, c.CBFailureThreshold)
	setInt(&cfg.SuccessThreshold, c.CBSuccessThreshold)
	setDuration(&cfg.Timeout, c.CBTimeoutMs)
	setDuration(&cfg.MonitorWindow, c.CBMonitorWindowMs)
	setDuration(&cfg.AttemptTimeout, c.CBAttemptTimeoutMs)
	setInt(&cfg.Retry.Attempts, c.RetryAttempts)
	setDurationAllowZero(&cfg.Retry.InitialDelay, c.RetryInitialDelayMs)
	setDuration(&cfg.Retry.MaxDelay, c.RetryMaxDelayMs)
	setFloat(&cfg.Retry.BackoffMultiplier, c.RetryBackoffMultiplier)

	return cfg
}

// TimeoutConfig returns the configured overrides only; the handler merges them over its defaults.
func (c *Config) TimeoutConfig() timeout.Config {
	overrides := map[model.OperationType]int{
		model.OperationQuery:          c.TimeoutQueryMs,
		model.OperationTransaction:    c.TimeoutTransactionMs,
		model.OperationMigration:      c.TimeoutMigrationMs,
		model.OperationConnection:     c.TimeoutConnectionMs,
		model.OperationBatchInsert:    c.TimeoutBatchInsertMs,
		model.OperationBatchUpdate:    c.TimeoutBatchUpdateMs,
		model.OperationBatchDelete:    c.TimeoutBatchDeleteMs,
		model.OperationAggregation:    c.TimeoutAggregationMs,
		model.OperationFullTextSearch: c.TimeoutFullTextSearchMs,
		model.OperationReporting:      c.TimeoutReportingMs,
		model.OperationHealthCheck:    c.TimeoutHealthCheckMs,
		model.OperationMetrics:        c.TimeoutMetricsMs,
	}

	table := make(map[model.OperationType]time.Duration)

	for opType, v := range overrides {
		if v > 0 {
			table[opType] = ms(v)
		}
	}

	return timeout.Config{Timeouts: table}
}

// MonitorConfig maps the MONITOR_* and ALERT_* knobs.
func (c *Config) MonitorConfig() monitor.Config {
	cfg := monitor.DefaultConfig()

	cfg.ProbeTable = c.MonitorProbeTable
	cfg.Alerts.WebhookURL = c.AlertWebhookURL

	if c.AlertsEnabled != "" {
		if enabled, err := strconv.ParseBool(c.AlertsEnabled); err == nil {
			cfg.Alerts.Enabled = enabled
		}
	}

	t := &cfg.Alerts.Thresholds

	setInt(&t.HealthScore, c.AlertThresholdHealthScore)
	setFloat(&t.PoolUtilization, c.AlertThresholdPoolUtilization)
	setDuration(&t.QueryTime, c.AlertThresholdQueryTimeMs)
	setFloat(&t.ErrorRate, c.AlertThresholdErrorRate)

	if c.AlertThresholdConnectionTimeouts > 0 {
		t.ConnectionTimeouts = int64(c.AlertThresholdConnectionTimeouts)
	}

	setDuration(&cfg.Alerts.Cooldown, c.AlertCooldownMs)
	setDuration(&cfg.Interval, c.MonitorIntervalMs)

	return cfg
}

// RabbitMQURL builds the AMQP URL. RABBITMQ_URI is the scheme, as in the other Lerian services.
func (c *Config) RabbitMQURL() string {
	if c.RabbitMQHost == "" {
		return ""
	}

	scheme := c.RabbitURI
	if scheme == "" {
		scheme = "amqp"
	}

	scheme = strings.TrimSuffix(scheme, "://")

	port := c.RabbitMQPortAMQP
	if port == "" {
		port = constant.RabbitMQDefaultPort
	}

	u := url.URL{
		Scheme: scheme,
		User:   url.UserPassword(c.RabbitMQUser, c.RabbitMQPass),
		Host:   net.JoinHostPort(c.RabbitMQHost, port),
	}

	return u.String()
}

//nolint:ireturn
func newConfigValidator() (*validator.Validate, ut.Translator) {
	locale := en.New()
	uni := ut.New(locale, locale)

	trans, _ := uni.GetTranslator("en")

	v := validator.New()

	if err := enTranslations.RegisterDefaultTranslations(v, trans); err != nil {
		panic(err)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}

		return fld.Name
	})

	return v, trans
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v int) {
	if v > 0 {
		*dst = ms(v)
	}
}

// setDurationAllowZero reads a millisecond string where "0" is a real value and
// empty keeps the default.
func setDurationAllowZero(dst *time.Duration, v string) {
	if v == "" {
		return
	}

	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		*dst = ms(n)
	}
}

func setFloat(dst *float64, v string) {
	if v == "" {
		return
	}

	if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
		*dst = f
	}
}
