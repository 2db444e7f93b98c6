package repository

import (
	"fmt"
	"strings"
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
)

type ClusterConfig struct {
	Hosts       []string
	Keyspace    string
	Consistency string
	Timeout     time.Duration
}

// NewCassandraSession connects to the cluster bound to the configured
// keyspace. The keyspace must already exist; EnsureKeyspace creates it.
func NewCassandraSession(cfg ClusterConfig) (*gocql.Session, error) {
	session, err := newCluster(cfg).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("NewCassandraSession: %w", err)
	}
	return session, nil
}

func newCluster(cfg ClusterConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = parseConsistency(cfg.Consistency)
	if cfg.Timeout > 0 {
		cluster.Timeout = cfg.Timeout
	}
	return cluster
}

func parseConsistency(s string) gocql.Consistency {
	switch strings.ToLower(s) {
	case "any":
		return gocql.Any
	case "one":
		return gocql.One
	case "two":
		return gocql.Two
	case "three":
		return gocql.Three
	case "all":
		return gocql.All
	case "local_quorum":
		return gocql.LocalQuorum
	case "each_quorum":
		return gocql.EachQuorum
	case "local_one":
		return gocql.LocalOne
	default:
		return gocql.Quorum
	}
}
