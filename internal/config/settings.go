// Package config loads process settings, run configurations and waypoint files.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Settings are the process-wide inputs of a simulator deployment.
type Settings struct {
	RouterKind            string
	RouterURL             string
	VehicleProfile        string
	RouteTimeout          time.Duration
	MaxRouteAttempts      int
	MaxDestinationSamples int
	RouteCacheDB          string

	ConfigFile string
	LinesFile  string
	FleetSize  int
	Interval   time.Duration

	MQTTBroker       string
	MQTTClientPrefix string
	MQTTQoS          byte
	TopicPrefix      string

	StatusAddr string

	MongoURI string
	MongoDB  string

	LogLevel  string
	LogFormat string
}

// LoadSettings reads settings from the environment. Values from the given
// .env files (or ".env" when none are given) are applied first; variables
// already present in the environment win.
func LoadSettings(envFiles ...string) Settings {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		log.WithError(err).Warn("Failed to load env file")
	}

	s := Settings{
		RouterKind:            getString("ROUTER_KIND", "osrm"),
		RouterURL:             os.Getenv("ROUTER_URL"),
		VehicleProfile:        getString("VEHICLE_PROFILE", "car"),
		RouteTimeout:          getDuration("ROUTE_TIMEOUT", 0),
		MaxRouteAttempts:      getInt("MAX_ROUTE_ATTEMPTS", 10),
		MaxDestinationSamples: getInt("MAX_DESTINATION_SAMPLES", 1000),
		RouteCacheDB:          os.Getenv("ROUTE_CACHE_DB"),
		ConfigFile:            getString("CONFIG_FILE", "config.json"),
		LinesFile:             os.Getenv("LINES_FILE"),
		FleetSize:             getInt("FLEET_SIZE", 10),
		Interval:              time.Second,
		MQTTBroker:            getString("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientPrefix:      getString("MQTT_CLIENT_PREFIX", "truck"),
		TopicPrefix:           getString("TOPIC_PREFIX", "vehicles/trucks/"),
		StatusAddr:            getString("STATUS_ADDR", ":8090"),
		MongoURI:              os.Getenv("MONGO_URI"),
		MongoDB:               getString("MONGO_DB", "geotruck"),
		LogLevel:              getString("LOG_LEVEL", "info"),
		LogFormat:             os.Getenv("LOG_FORMAT"),
	}

	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			s.Interval = time.Duration(n) * time.Second
		}
	}
	if qos := getInt("MQTT_QOS", 0); qos >= 0 && qos <= 2 {
		s.MQTTQoS = byte(qos)
	}
	if s.RouterURL == "" {
		switch s.RouterKind {
		case "graphhopper":
			s.RouterURL = "http://localhost:8989"
		default:
			s.RouterURL = "http://localhost:5000"
		}
	}
	return s
}

// InitLogging configures the global logger.
func InitLogging(level, format string) {
	log.SetOutput(os.Stdout)
	if format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("Unknown log level, using info")
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
