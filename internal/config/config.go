package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	CassandraHosts       []string `env:"CASSANDRA_HOSTS" envDefault:"127.0.0.1" envSeparator:","`
	CassandraKeyspace    string   `env:"CASSANDRA_KEYSPACE" envDefault:"identity"`
	CassandraConsistency string   `env:"CASSANDRA_CONSISTENCY" envDefault:"quorum"`
	CassandraTimeoutMS   int      `env:"CASSANDRA_TIMEOUT_MS" envDefault:"2000"`
	ReplicationFactor    int      `env:"CASSANDRA_REPLICATION_FACTOR" envDefault:"1"`
	SkipSchemaBootstrap  bool     `env:"SKIP_SCHEMA_BOOTSTRAP" envDefault:"false"`

	JWTSecret  string `env:"JWT_SECRET,required"`
	JWTExpiryH int    `env:"JWT_EXPIRY_H" envDefault:"24"`

	MaxAccessFailed int `env:"MAX_ACCESS_FAILED" envDefault:"5"`
	LockoutMinutes  int `env:"LOCKOUT_MINUTES" envDefault:"15"`

	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
