//go:build integration

package cachesnap_test

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	goredis "github.com/redis/go-redis/v9"
	testcontainers "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/goforj/cachesnap"
	"github.com/goforj/cachesnap/snaptest"
)

var integrationRedis struct {
	container testcontainers.Container
	addr      string
}

func TestMain(m *testing.M) {
	ctx := context.Background()

	if integrationDriverEnabled("redis") {
		container, addr, err := startRedisContainer(ctx)
		if err != nil {
			_, _ = os.Stderr.WriteString("failed to start redis integration container: " + err.Error() + "\n")
			os.Exit(1)
		}
		integrationRedis.container = container
		integrationRedis.addr = addr
	}

	exitCode := m.Run()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if integrationRedis.container != nil {
		_ = integrationRedis.container.Terminate(shutdownCtx)
	}

	os.Exit(exitCode)
}

// INTEGRATION_DRIVER may be "all" (default) or a comma-separated list such as
// "redis,memory".
func selectedIntegrationDrivers() map[string]bool {
	selected := map[string]bool{
		"memory": true,
		"redis":  true,
	}
	value := strings.TrimSpace(strings.ToLower(os.Getenv("INTEGRATION_DRIVER")))
	if value == "" || value == "all" {
		return selected
	}
	for key := range selected {
		selected[key] = false
	}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		selected[part] = true
	}
	return selected
}

func integrationDriverEnabled(name string) bool {
	return selectedIntegrationDrivers()[strings.ToLower(name)]
}

func startRedisContainer(ctx context.Context) (testcontainers.Container, string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", err
	}
	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}
	port, err := container.MappedPort(ctx, nat.Port("6379/tcp"))
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}
	return container, net.JoinHostPort(host, port.Port()), nil
}

func newIntegrationRedisStore(t *testing.T, prefix string) cachesnap.Store {
	t.Helper()
	if !integrationDriverEnabled("redis") {
		t.Skip("redis integration driver disabled")
	}
	client := goredis.NewClient(&goredis.Options{Addr: integrationRedis.addr})
	t.Cleanup(func() { _ = client.Close() })
	return cachesnap.NewRedisStore(context.Background(), client, cachesnap.WithPrefix(prefix))
}

func TestIntegrationRedisStoreContract(t *testing.T) {
	store := newIntegrationRedisStore(t, "contract")
	snaptest.RunStoreContract(t, store, snaptest.Options{
		CaseName: t.Name(),
		TTL:      time.Second,
		TTLWait:  1500 * time.Millisecond,
	})
}

func TestIntegrationRedisRecordingSession(t *testing.T) {
	store := newIntegrationRedisStore(t, "session")
	reg := cachesnap.NewRegistry()
	reg.Register("default", store)

	path := filepath.Join(t.TempDir(), "redis.snap.yml")
	run := func() error {
		sess, err := cachesnap.Begin(reg,
			cachesnap.WithSnapshotPath(path),
			cachesnap.WithRecordName("redis-traffic"),
		)
		if err != nil {
			t.Fatalf("begin failed: %v", err)
		}
		ctx := context.Background()
		live, _ := reg.Lookup("default")
		if err := live.Set(ctx, "user:1001", []byte("alice"), time.Minute); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		if _, _, err := live.Get(ctx, "user:1001"); err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if err := live.DeleteMany(ctx, "user:1001", "user:1002"); err != nil {
			t.Fatalf("delete many failed: %v", err)
		}
		return sess.Close()
	}

	if err := run(); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	// Second run replays the same traffic and must match the stored snapshot.
	if err := run(); err != nil {
		t.Fatalf("replay run failed: %v", err)
	}
}
