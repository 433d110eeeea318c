// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/LerianStudio/dbguard/pkg"
	"github.com/LerianStudio/dbguard/pkg/circuitbreaker"
	"github.com/LerianStudio/dbguard/pkg/constant"
	"github.com/LerianStudio/dbguard/pkg/metrics"
	"github.com/LerianStudio/dbguard/pkg/model"
	"github.com/LerianStudio/dbguard/pkg/monitor"
	"github.com/LerianStudio/dbguard/pkg/notifier"
	"github.com/LerianStudio/dbguard/pkg/postgres"
	"github.com/LerianStudio/dbguard/pkg/redis"

	libCommons "github.com/LerianStudio/lib-commons/v3/commons"
	"github.com/LerianStudio/lib-commons/v3/commons/log"
	libOtel "github.com/LerianStudio/lib-commons/v3/commons/opentelemetry"
	libRabbitmq "github.com/LerianStudio/lib-commons/v3/commons/rabbitmq"
	libRedis "github.com/LerianStudio/lib-commons/v3/commons/redis"
	"github.com/LerianStudio/lib-commons/v3/commons/zap"
)

// initConfigAndLogger loads configuration from environment variables, validates it,
// and initializes the structured logger.
func initConfigAndLogger() (*Config, log.Logger, error) {
	cfg := &Config{}
	if err := libCommons.SetConfigFromEnvVars(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to load config from env vars: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := zap.InitializeLoggerWithError()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger, nil
}

// initTelemetry initializes OpenTelemetry and returns a cleanup function that
// shuts the providers down.
func initTelemetry(cfg *Config, logger log.Logger) (*libOtel.Telemetry, func(), error) {
	telemetry, err := libOtel.InitializeTelemetryWithError(&libOtel.TelemetryConfig{
		LibraryName:               cfg.OtelLibraryName,
		ServiceName:               cfg.OtelServiceName,
		ServiceVersion:            cfg.OtelServiceVersion,
		DeploymentEnv:             cfg.OtelDeploymentEnv,
		CollectorExporterEndpoint: cfg.OtelColExporterEndpoint,
		EnableTelemetry:           cfg.EnableTelemetry,
		Logger:                    logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	cleanup := func() {
		logger.Info("Cleanup: shutting down telemetry")
		telemetry.ShutdownTelemetry()
	}

	return telemetry, cleanup, nil
}

// initMetrics registers the resilience instruments on the telemetry meter.
// With telemetry disabled, or when registration fails, noop instruments are returned.
func initMetrics(cfg *Config, telemetry *libOtel.Telemetry, logger log.Logger) *metrics.Metrics {
	if !cfg.EnableTelemetry || telemetry == nil || telemetry.MetricProvider == nil {
		logger.Info("Resilience metrics: using noop instruments (telemetry disabled)")
		return metrics.NoopMetrics()
	}

	m, err := metrics.NewMetrics(telemetry.MetricProvider.Meter(cfg.OtelLibraryName))
	if err != nil {
		logger.Errorf("Failed to create resilience metrics, falling back to noop: %v", err)
		return metrics.NoopMetrics()
	}

	logger.Info("Resilience metrics: 8 instruments registered")

	return m
}

// initDatabase opens the guarded database and returns a cleanup function that closes it.
func initDatabase(ctx context.Context, cfg *Config, logger log.Logger) (postgres.Client, func(), error) {
	pgCfg := cfg.PostgresConfig()

	logger.Infof("Database connecting to %s (driver %s)", pkg.RedactConnectionString(pgCfg.DSN()), pgCfg.Driver)

	client, err := postgres.Open(ctx, pgCfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	cleanup := func() {
		logger.Info("Cleanup: closing database connection")

		if closeErr := client.Close(); closeErr != nil {
			logger.Errorf("Cleanup: failed to close database connection: %v", closeErr)
		}
	}

	return client, cleanup, nil
}

// initCooldown picks the shared Redis cooldown store when REDIS_HOST is set,
// and the process-local store otherwise.
func initCooldown(cfg *Config, logger log.Logger) (monitor.CooldownStore, func(), error) {
	if cfg.RedisHost == "" {
		logger.Info("Alert cooldown: using in-memory store")
		return monitor.NewMemoryCooldown(), func() {}, nil
	}

	logger.Infof("Alert cooldown: connecting to Redis at %s", cfg.RedisHost)

	redisConnection := &libRedis.RedisConnection{
		Address:  strings.Split(cfg.RedisHost, ","),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Logger:   logger,
	}

	repo, err := redis.NewConsumerRedis(redisConnection)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize redis connection: %w", err)
	}

	cleanup := func() {
		logger.Info("Cleanup: closing Redis connection")

		if closeErr := redisConnection.Close(); closeErr != nil {
			logger.Errorf("Cleanup: failed to close Redis connection: %v", closeErr)
		}
	}

	return redis.NewCooldown(repo), cleanup, nil
}

// initNotifiers builds the alert sinks. The log sink is always present; the
// webhook and RabbitMQ sinks are added when configured.
func initNotifiers(cfg *Config, alerts model.AlertConfig, logger log.Logger) (*notifier.Multi, func(), error) {
	sinks := []notifier.Notifier{notifier.NewLogNotifier(logger)}
	cleanup := func() {}

	if alerts.WebhookURL != "" {
		webhook, err := notifier.NewWebhookNotifier(alerts.WebhookURL, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize webhook notifier: %w", err)
		}

		logger.Infof("Alert webhook enabled: %s", pkg.RedactConnectionString(alerts.WebhookURL))

		sinks = append(sinks, webhook)
	}

	if rabbitURL := cfg.RabbitMQURL(); rabbitURL != "" {
		logger.Infof("RabbitMQ connecting to %s", pkg.RedactConnectionString(rabbitURL))

		rabbitMQConnection := &libRabbitmq.RabbitMQConnection{
			ConnectionStringSource: rabbitURL,
			HealthCheckURL:         cfg.RabbitMQHealthCheckURL,
			Host:                   cfg.RabbitMQHost,
			Port:                   cfg.RabbitMQPortHost,
			User:                   cfg.RabbitMQUser,
			Pass:                   cfg.RabbitMQPass,
			Logger:                 logger,
		}

		rabbit, err := notifier.NewRabbitMQNotifier(rabbitMQConnection, cfg.RabbitMQAlertExchange, cfg.RabbitMQAlertRoutingKey, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize rabbitmq notifier: %w", err)
		}

		sinks = append(sinks, rabbit)

		cleanup = func() {
			logger.Info("Cleanup: closing RabbitMQ connection")

			if rabbitMQConnection.Channel != nil {
				if closeErr := rabbitMQConnection.Channel.Close(); closeErr != nil {
					logger.Errorf("Cleanup: failed to close RabbitMQ channel: %v", closeErr)
				}
			}

			if rabbitMQConnection.Connection != nil && !rabbitMQConnection.Connection.IsClosed() {
				if closeErr := rabbitMQConnection.Connection.Close(); closeErr != nil {
					logger.Errorf("Cleanup: failed to close RabbitMQ connection: %v", closeErr)
				}
			}
		}
	}

	return notifier.NewMulti(sinks...), cleanup, nil
}

// breakerStateLogger logs every transition of the database breaker.
func breakerStateLogger(logger log.Logger) circuitbreaker.StateChangeFunc {
	return func(name string, from, to model.CircuitState) {
		if to == model.CircuitOpen {
			logger.Errorf("Circuit breaker %s: %s -> %s", name, from, to)
			return
		}

		logger.Infof("Circuit breaker %s: %s -> %s", name, from, to)
	}
}

func breakerName(cfg *Config) string {
	if cfg.DBName == "" {
		return constant.ApplicationName
	}

	return constant.ApplicationName + ":" + cfg.DBName
}
