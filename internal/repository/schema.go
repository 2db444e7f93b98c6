package repository

import (
	"fmt"
	"strings"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
)

// EnsureKeyspace creates the keyspace if it does not exist, using a
// short-lived session that is not bound to any keyspace.
func EnsureKeyspace(cfg ClusterConfig, replicationFactor int) error {
	bare := cfg
	bare.Keyspace = ""

	session, err := newCluster(bare).CreateSession()
	if err != nil {
		return fmt.Errorf("EnsureKeyspace: connect: %w", err)
	}
	defer session.Close()

	stmt := fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s
		WITH REPLICATION = {'class': 'SimpleStrategy', 'replication_factor': %d}
		AND durable_writes = true`, qident(cfg.Keyspace), replicationFactor)
	if err := session.Query(stmt).Exec(); err != nil {
		return fmt.Errorf("EnsureKeyspace: %w", err)
	}
	return nil
}

// EnsureSchema creates the identity tables in the session's keyspace. It is
// idempotent (IF NOT EXISTS everywhere) and intended to run once at startup;
// a failure here means the store is unusable.
//
// Three copies of each user row are kept, one per lookup key. The write path
// keeps them in step with logged batches; nothing here enforces agreement.
func EnsureSchema(session *gocql.Session) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id                     uuid PRIMARY KEY,
			username               text,
			email                  text,
			password_hash          text,
			security_stamp         text,
			two_factor_enabled     boolean,
			access_failed_count    int,
			lockout_enabled        boolean,
			lockout_end_date       timestamp,
			phone_number           text,
			phone_number_confirmed boolean,
			email_confirmed        boolean
		)`,

		`CREATE TABLE IF NOT EXISTS users_by_username (
			username               text PRIMARY KEY,
			id                     uuid,
			email                  text,
			password_hash          text,
			security_stamp         text,
			two_factor_enabled     boolean,
			access_failed_count    int,
			lockout_enabled        boolean,
			lockout_end_date       timestamp,
			phone_number           text,
			phone_number_confirmed boolean,
			email_confirmed        boolean
		)`,

		`CREATE TABLE IF NOT EXISTS users_by_email (
			email                  text PRIMARY KEY,
			id                     uuid,
			username               text,
			password_hash          text,
			security_stamp         text,
			two_factor_enabled     boolean,
			access_failed_count    int,
			lockout_enabled        boolean,
			lockout_end_date       timestamp,
			phone_number           text,
			phone_number_confirmed boolean,
			email_confirmed        boolean
		)`,

		`CREATE TABLE IF NOT EXISTS logins (
			id             uuid,
			login_provider text,
			provider_key   text,
			PRIMARY KEY ((id), login_provider, provider_key)
		)`,

		`CREATE TABLE IF NOT EXISTS logins_by_provider (
			login_provider text,
			provider_key   text,
			id             uuid,
			PRIMARY KEY ((login_provider, provider_key))
		)`,

		`CREATE TABLE IF NOT EXISTS claims (
			id    uuid,
			type  text,
			value text,
			PRIMARY KEY ((id), type, value)
		)`,

		`CREATE TABLE IF NOT EXISTS roles (
			id   uuid PRIMARY KEY,
			name text
		)`,

		`CREATE TABLE IF NOT EXISTS roles_by_name (
			name text PRIMARY KEY,
			id   uuid
		)`,
	}

	for _, stmt := range stmts {
		if err := session.Query(stmt).Exec(); err != nil {
			return fmt.Errorf("EnsureSchema: %w (stmt=%s)", err, oneLine(stmt))
		}
	}
	return nil
}

// qident quotes a Cassandra identifier if needed.
func qident(name string) string {
	if isSafeIdent(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func isSafeIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		case r == '_':
		default:
			return false
		}
	}
	return true
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
