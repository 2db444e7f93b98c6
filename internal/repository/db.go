package repository

import (
	gocql "github.com/apache/cassandra-gocql-driver/v2"
)

// DB bundles the Cassandra session with the statement catalog shared by the
// repositories. The session is an externally created resource; DB closes it
// on Close only when it was handed ownership.
type DB struct {
	session *gocql.Session
	stmts   *statements
	owned   bool
}

func NewDB(session *gocql.Session, owned bool) *DB {
	return &DB{
		session: session,
		stmts:   newStatements(),
		owned:   owned,
	}
}

func (d *DB) Session() *gocql.Session {
	return d.session
}

func (d *DB) Close() {
	if d.owned {
		d.session.Close()
	}
}
