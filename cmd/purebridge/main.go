// Purebridge - local bridge for Dyson air-treatment appliances
//
// This is the main entry point for the Purebridge application.
// Purebridge connects directly to each appliance's built-in MQTT broker
// over the local network; the vendor cloud is consulted only when a device
// is configured without a local credentials blob.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/purebridge/purebridge-core/internal/api"
	"github.com/purebridge/purebridge-core/internal/bridges/dyson"
	"github.com/purebridge/purebridge-core/internal/cloud"
	"github.com/purebridge/purebridge-core/internal/infrastructure/config"
	"github.com/purebridge/purebridge-core/internal/infrastructure/influxdb"
	"github.com/purebridge/purebridge-core/internal/infrastructure/logging"
	"github.com/purebridge/purebridge-core/internal/platform"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Purebridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	var telemetry platform.Telemetry
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		telemetry = &environmentTelemetry{influx: influxClient}
	} else {
		log.Info("InfluxDB disabled")
	}

	// Cloud device directory (optional)
	var directory platform.DirectoryLister
	if cfg.Dyson.Directory.Enabled {
		client := cloud.NewDirectoryClient(
			cfg.Dyson.Directory.BaseURL,
			cfg.Dyson.Directory.Token,
			cfg.Dyson.Directory.GetRetryDelay(),
		)
		client.SetLogger(log)
		directory = client
		log.Info("device directory enabled", "base_url", cfg.Dyson.Directory.BaseURL)
	}

	// Start the device platform
	devicePlatform := platform.New(cfg.Dyson, platform.Options{
		Directory: directory,
		Telemetry: telemetry,
		Logger:    log,
	})
	if err := devicePlatform.Start(ctx); err != nil {
		return fmt.Errorf("starting device platform: %w", err)
	}
	defer func() {
		log.Info("closing device sessions")
		devicePlatform.Close()
	}()
	log.Info("device platform started", "devices", len(devicePlatform.Devices()))

	// Start the HTTP API
	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Platform: devicePlatform,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Device sessions
	// 3. InfluxDB (if enabled)

	log.Info("Purebridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PUREBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PUREBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// environmentTelemetry adapts the InfluxDB client to the platform's
// Telemetry interface, flattening a decoded environmental frame into
// individual metric points. Suppressed readings are never written.
type environmentTelemetry struct {
	influx *influxdb.Client
}

// WriteEnvironment implements platform.Telemetry.
func (t *environmentTelemetry) WriteEnvironment(serialNumber string, env dyson.Environment) {
	if env.TemperatureCelsius != nil {
		t.influx.WriteEnvironmentMetric(serialNumber, "temperature_c", *env.TemperatureCelsius)
	}
	if env.HumidityPercent != nil {
		t.influx.WriteEnvironmentMetric(serialNumber, "humidity_percent", float64(*env.HumidityPercent))
	}
	if env.AirQuality == nil {
		return
	}

	t.influx.WriteEnvironmentMetric(serialNumber, "air_quality", float64(env.AirQuality.Overall))
	if env.AirQuality.PM25 != nil {
		t.influx.WriteEnvironmentMetric(serialNumber, "pm2_5", float64(*env.AirQuality.PM25))
	}
	if env.AirQuality.PM10 != nil {
		t.influx.WriteEnvironmentMetric(serialNumber, "pm10", float64(*env.AirQuality.PM10))
	}
	if env.AirQuality.VOC != nil {
		t.influx.WriteEnvironmentMetric(serialNumber, "voc", float64(*env.AirQuality.VOC))
	}
	if env.AirQuality.NO2 != nil {
		t.influx.WriteEnvironmentMetric(serialNumber, "no2", float64(*env.AirQuality.NO2))
	}
	if env.AirQuality.HCHO != nil {
		t.influx.WriteEnvironmentMetric(serialNumber, "formaldehyde", float64(*env.AirQuality.HCHO))
	}
}
