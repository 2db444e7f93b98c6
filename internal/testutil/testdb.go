package testutil

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go/modules/cassandra"

	"github.com/prolucid/identity-cassandra/internal/repository"
)

var (
	containerOnce sync.Once
	containerHost string
	containerErr  error
)

// SetupTestDB starts (once per test binary) a Cassandra container and hands
// back a DB bound to a keyspace unique to this test. The container is
// reclaimed by the testcontainers reaper; the session closes with the test.
func SetupTestDB(t *testing.T) *repository.DB {
	t.Helper()
	ctx := context.Background()

	containerOnce.Do(func() {
		container, err := cassandra.Run(ctx, "cassandra:4.1")
		if err != nil {
			containerErr = err
			return
		}
		containerHost, containerErr = container.ConnectionHost(ctx)
	})
	if containerErr != nil {
		t.Fatalf("start cassandra container: %v", containerErr)
	}

	cfg := repository.ClusterConfig{
		Hosts:       []string{containerHost},
		Keyspace:    testKeyspace(),
		Consistency: "one",
		Timeout:     10 * time.Second,
	}

	if err := repository.EnsureKeyspace(cfg, 1); err != nil {
		t.Fatalf("create keyspace: %v", err)
	}

	session, err := repository.NewCassandraSession(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(session.Close)

	if err := repository.EnsureSchema(session); err != nil {
		t.Fatalf("bootstrap schema: %v", err)
	}

	return repository.NewDB(session, false)
}

func testKeyspace() string {
	return "identity_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
