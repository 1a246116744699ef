package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-holograms/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-holograms/internal/infrastructure/logging"
)

func writeTestConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("HOLOCORE_CONFIG", path)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("HOLOCORE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_SQLiteStoreWithoutPath(t *testing.T) {
	writeTestConfig(t, `
site:
  id: test-site
holograms:
  store: sqlite
database:
  path: ""
mqtt:
  enabled: false
`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with empty database path")
	}
}

func TestRun_StartupAndShutdown(t *testing.T) {
	for _, store := range []string{config.StoreFile, config.StoreSQLite} {
		t.Run(store, func(t *testing.T) {
			dir := t.TempDir()
			writeTestConfig(t, fmt.Sprintf(`
site:
  id: test-site
holograms:
  store: %s
  definitions_dir: %q
database:
  path: %q
mqtt:
  enabled: false
influxdb:
  enabled: false
api:
  host: 127.0.0.1
  port: %d
logging:
  level: error
`, store, filepath.Join(dir, "displays"), filepath.Join(dir, "holocore.db"), freePort(t)))

			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()

			if err := run(ctx); err != nil {
				t.Fatalf("run() error = %v", err)
			}
		})
	}
}

func TestHealthCheck_NoClients(t *testing.T) {
	if err := healthCheck(context.Background(), nil, nil, nil); err != nil {
		t.Errorf("healthCheck() with nothing enabled = %v, want nil", err)
	}
}

func TestDiscardPublisher(t *testing.T) {
	p := discardPublisher{log: logging.Default()}
	if err := p.PublishJSON("holocore/render/x/show", map[string]string{"a": "b"}); err != nil {
		t.Errorf("PublishJSON() = %v, want nil", err)
	}
}
