package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// configPathEnv points at an optional YAML file, --config wins over it.
const configPathEnv = "CARGO_CONFIG"

// Store drivers understood by the service.
const (
	DriverMemory    = "memory"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
	DriverFirestore = "firestore"
)

//Config holds every setting of the cargo service.
//Field names follow the environment variables that override them.

type Config struct {
	STORE_DRIVER string `yaml:"store_driver"`
	//Postgres
	DB_USER     string `yaml:"db_user"`
	DB_PASSWORD string `yaml:"db_password"`
	DB_NAME     string `yaml:"db_name"`
	DB_HOST     string `yaml:"db_host"`
	DB_PORT     string `yaml:"db_port"`
	//SQLite file, used when STORE_DRIVER=sqlite
	SQLITE_PATH string `yaml:"sqlite_path"`
	//Firestore
	FIRESTORE_PROJECT_ID  string `yaml:"firestore_project_id"`
	FIRESTORE_CREDENTIALS string `yaml:"firestore_credentials"` //service account json, empty means ADC
	APP_ID                string `yaml:"app_id"`                //collection prefix artifacts/{APP_ID}/public/data/cargoItems
	//Kafka change events
	KAFKA_TOPIC  string `yaml:"kafka_topic"`
	KAFKA_BROKER string `yaml:"kafka_broker"`
	KAFKA_CODEC  string `yaml:"kafka_codec"` //json or msgpack
	KAFKA_GROUP  string `yaml:"kafka_group"`
	//RabbitMQ eta alerts
	RABBITMQ_USER     string `yaml:"rabbitmq_user"`
	RABBITMQ_PASSWORD string `yaml:"rabbitmq_password"`
	RABBITMQ_HOST     string `yaml:"rabbitmq_host"`
	RABBITMQ_PORT     string `yaml:"rabbitmq_port"`
	ALERT_QUEUE       string `yaml:"alert_queue"`
	//Servers
	HTTP_ADDR string `yaml:"http_addr"`
	GRPC_ADDR string `yaml:"grpc_addr"`
	//Alerts
	ALERT_INTERVAL time.Duration `yaml:"alert_interval"` //how often the eta watcher re-evaluates
	ALERT_REFRESH  time.Duration `yaml:"alert_refresh"`  //how often live views are re-rendered
	TIMEZONE       string        `yaml:"timezone"`
	//Misc
	USER_ID   string `yaml:"user_id"` //identity used when the request carries none
	LOG_LEVEL string `yaml:"log_level"`

	location *time.Location
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		STORE_DRIVER:   DriverMemory,
		DB_PORT:        "5432",
		SQLITE_PATH:    "cargo.db",
		APP_ID:         "coordinator-cargo",
		KAFKA_CODEC:    "json",
		KAFKA_GROUP:    "cargo-events",
		ALERT_QUEUE:    "cargo_eta_alerts",
		HTTP_ADDR:      ":8080",
		GRPC_ADDR:      ":50051",
		ALERT_INTERVAL: time.Minute,
		ALERT_REFRESH:  time.Second,
		TIMEZONE:       "Local",
		USER_ID:        "anonymous",
		LOG_LEVEL:      "info",
	}
}

// LoadConfig reads defaults, then the YAML file at path (or $CARGO_CONFIG), then
// environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: cannot read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: cannot parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"STORE_DRIVER":          &c.STORE_DRIVER,
		"DB_USER":               &c.DB_USER,
		"DB_PASSWORD":           &c.DB_PASSWORD,
		"DB_NAME":               &c.DB_NAME,
		"DB_HOST":               &c.DB_HOST,
		"DB_PORT":               &c.DB_PORT,
		"SQLITE_PATH":           &c.SQLITE_PATH,
		"FIRESTORE_PROJECT_ID":  &c.FIRESTORE_PROJECT_ID,
		"FIRESTORE_CREDENTIALS": &c.FIRESTORE_CREDENTIALS,
		"APP_ID":                &c.APP_ID,
		"KAFKA_TOPIC":           &c.KAFKA_TOPIC,
		"KAFKA_BROKER":          &c.KAFKA_BROKER,
		"KAFKA_CODEC":           &c.KAFKA_CODEC,
		"KAFKA_GROUP":           &c.KAFKA_GROUP,
		"RABBITMQ_USER":         &c.RABBITMQ_USER,
		"RABBITMQ_PASSWORD":     &c.RABBITMQ_PASSWORD,
		"RABBITMQ_HOST":         &c.RABBITMQ_HOST,
		"RABBITMQ_PORT":         &c.RABBITMQ_PORT,
		"ALERT_QUEUE":           &c.ALERT_QUEUE,
		"HTTP_ADDR":             &c.HTTP_ADDR,
		"GRPC_ADDR":             &c.GRPC_ADDR,
		"TIMEZONE":              &c.TIMEZONE,
		"USER_ID":               &c.USER_ID,
		"LOG_LEVEL":             &c.LOG_LEVEL,
	}
	for env, field := range strs {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*field = v
		}
	}

	durations := map[string]*time.Duration{
		"ALERT_INTERVAL": &c.ALERT_INTERVAL,
		"ALERT_REFRESH":  &c.ALERT_REFRESH,
	}
	for env, field := range durations {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", env, err)
		}
		*field = d
	}
	return nil
}

func (c *Config) validate() error {
	c.STORE_DRIVER = strings.ToLower(strings.TrimSpace(c.STORE_DRIVER))
	switch c.STORE_DRIVER {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.DB_HOST == "" || c.DB_NAME == "" {
			return fmt.Errorf("config: DB_HOST and DB_NAME are required for the postgres store")
		}
	case DriverFirestore:
		if c.FIRESTORE_PROJECT_ID == "" {
			return fmt.Errorf("config: FIRESTORE_PROJECT_ID is required for the firestore store")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.STORE_DRIVER)
	}

	switch c.KAFKA_CODEC {
	case "json", "msgpack":
	default:
		return fmt.Errorf("config: unknown KAFKA_CODEC %q", c.KAFKA_CODEC)
	}

	if c.ALERT_INTERVAL <= 0 || c.ALERT_REFRESH <= 0 {
		return fmt.Errorf("config: ALERT_INTERVAL and ALERT_REFRESH must be positive")
	}

	loc, err := time.LoadLocation(c.TIMEZONE)
	if err != nil {
		return fmt.Errorf("config: unknown TIMEZONE %q: %w", c.TIMEZONE, err)
	}
	c.location = loc
	return nil
}

// GetDBURL formats the config into a PostgreSQL connection string
func (c *Config) GetDBURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DB_USER, c.DB_PASSWORD, c.DB_HOST, c.DB_PORT, c.DB_NAME)
}

// GetRabbitMQURL formats the config into a RabbitMQ connection string

func (c *Config) GetRabbitMQURL() string {

	//default standard ports if missing
	host := c.RABBITMQ_HOST
	if host == "" {
		host = "localhost"
	}
	port := c.RABBITMQ_PORT
	if port == "" {
		port = "5672"
	}

	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.RABBITMQ_USER, c.RABBITMQ_PASSWORD, host, port)
}

// KafkaEnabled reports whether change events should be published.
func (c *Config) KafkaEnabled() bool {
	return c.KAFKA_BROKER != "" && c.KAFKA_TOPIC != ""
}

// RabbitMQEnabled reports whether eta alerts should be queued.
func (c *Config) RabbitMQEnabled() bool {
	return c.RABBITMQ_HOST != ""
}

// Location is the time reference used for eta alerts.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}
