package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/wayfarer-travel/service-companion/internal/domain/geo"
	"github.com/wayfarer-travel/service-companion/internal/platform/database"
)

// EnvPrefix is prepended to every environment variable, e.g. COMPANION_DB_HOST.
const EnvPrefix = "COMPANION"

// Zone source kinds.
const (
	ZoneSourceStatic   = "static"
	ZoneSourceDatabase = "database"
	ZoneSourceGeoJSON  = "geojson"
)

// KafkaConfig holds broker settings and topic names.
type KafkaConfig struct {
	Enabled         bool
	Brokers         []string
	GroupPrefix     string
	PositionsTopic  string
	SafetyTopic     string
	NavigationTopic string
}

// JWTConfig holds token settings.
type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// EngineConfig holds the tunables of the zone and progress engine.
type EngineConfig struct {
	HaloMultiplier    float64
	TickPeriod        time.Duration
	ProgressIncrement float64
	AlertTTL          time.Duration
	FloorPulse        time.Duration
	ZoneSearchRadius  float64
}

// ZoneSourceConfig selects where zone sets come from.
type ZoneSourceConfig struct {
	Kind        string
	GeoJSONPath string
	SeedFile    string
}

// ServiceConfig holds all configuration for the companion service.
type ServiceConfig struct {
	Port             string
	AppEnv           string
	DB               database.PostgresConfig
	JWT              JWTConfig
	Kafka            KafkaConfig
	Engine           EngineConfig
	ZoneSource       ZoneSourceConfig
	FallbackPosition geo.Coordinate
}

// Load reads configuration from an optional YAML file named by
// COMPANION_CONFIG_FILE, overridden by COMPANION_* environment variables.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_port", "8080")
	v.SetDefault("app_env", "production")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "companion_db")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("jwt.secret", "change-me")
	v.SetDefault("jwt.access_ttl", 15*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 7*24*time.Hour)

	v.SetDefault("kafka.enabled", true)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.group_prefix", "")
	v.SetDefault("kafka.positions_topic", "traveler.positions")
	v.SetDefault("kafka.safety_topic", "safety.events")
	v.SetDefault("kafka.navigation_topic", "navigation.events")

	v.SetDefault("engine.halo_multiplier", 1.5)
	v.SetDefault("engine.tick_period", 500*time.Millisecond)
	v.SetDefault("engine.progress_increment", 2.0)
	v.SetDefault("engine.alert_ttl", 6*time.Second)
	v.SetDefault("engine.floor_pulse", 3*time.Second)
	v.SetDefault("engine.zone_search_radius", 5000.0)

	v.SetDefault("zones.source", ZoneSourceStatic)
	v.SetDefault("zones.geojson_path", "")
	v.SetDefault("zones.seed_file", "")

	// Kuala Lumpur city centre.
	v.SetDefault("fallback.latitude", 3.1390)
	v.SetDefault("fallback.longitude", 101.6869)
}

func fromViper(v *viper.Viper) (*ServiceConfig, error) {
	port := v.GetString("service_port")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	cfg := &ServiceConfig{
		Port:   port,
		AppEnv: v.GetString("app_env"),
		DB: database.PostgresConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			DBName:   v.GetString("db.name"),
			SSLMode:  v.GetString("db.sslmode"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			AccessTTL:  v.GetDuration("jwt.access_ttl"),
			RefreshTTL: v.GetDuration("jwt.refresh_ttl"),
		},
		Kafka: KafkaConfig{
			Enabled:         v.GetBool("kafka.enabled"),
			Brokers:         splitList(v.GetString("kafka.brokers")),
			GroupPrefix:     v.GetString("kafka.group_prefix"),
			PositionsTopic:  v.GetString("kafka.positions_topic"),
			SafetyTopic:     v.GetString("kafka.safety_topic"),
			NavigationTopic: v.GetString("kafka.navigation_topic"),
		},
		Engine: EngineConfig{
			HaloMultiplier:    v.GetFloat64("engine.halo_multiplier"),
			TickPeriod:        v.GetDuration("engine.tick_period"),
			ProgressIncrement: v.GetFloat64("engine.progress_increment"),
			AlertTTL:          v.GetDuration("engine.alert_ttl"),
			FloorPulse:        v.GetDuration("engine.floor_pulse"),
			ZoneSearchRadius:  v.GetFloat64("engine.zone_search_radius"),
		},
		ZoneSource: ZoneSourceConfig{
			Kind:        strings.ToLower(v.GetString("zones.source")),
			GeoJSONPath: v.GetString("zones.geojson_path"),
			SeedFile:    v.GetString("zones.seed_file"),
		},
		FallbackPosition: geo.Coordinate{
			Latitude:  v.GetFloat64("fallback.latitude"),
			Longitude: v.GetFloat64("fallback.longitude"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *ServiceConfig) Validate() error {
	if !c.FallbackPosition.Valid() {
		return fmt.Errorf("fallback position %s is not a valid coordinate", c.FallbackPosition)
	}
	if c.Engine.HaloMultiplier < 1 {
		return fmt.Errorf("engine.halo_multiplier must be >= 1, got %v", c.Engine.HaloMultiplier)
	}
	if c.Engine.TickPeriod <= 0 || c.Engine.AlertTTL <= 0 || c.Engine.FloorPulse <= 0 {
		return fmt.Errorf("engine durations must be positive")
	}
	if !(c.Engine.ProgressIncrement > 0) || c.Engine.ProgressIncrement > 100 {
		return fmt.Errorf("engine.progress_increment must be in (0, 100], got %v", c.Engine.ProgressIncrement)
	}
	switch c.ZoneSource.Kind {
	case ZoneSourceStatic, ZoneSourceDatabase:
	case ZoneSourceGeoJSON:
		if c.ZoneSource.GeoJSONPath == "" {
			return fmt.Errorf("zones.geojson_path is required for the geojson zone source")
		}
	default:
		return fmt.Errorf("unknown zone source %q", c.ZoneSource.Kind)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers must not be empty when kafka is enabled")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
