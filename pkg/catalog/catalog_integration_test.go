//go:build integration

package catalog

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestRegistry_ResolveAgainstContainerizedCatalog exercises Resolve
// against a real network-backed catalog rather than an in-process
// httptest.Server: an nginx container serves a prebuilt library
// archive tree straight off disk, so the registry's fetchAndCache
// path runs over a real TCP connection with real timeouts.
func TestRegistry_ResolveAgainstContainerizedCatalog(t *testing.T) {
	ctx := context.Background()

	hostDir := t.TempDir()
	zipData := buildFakeLibraryZip(t, `{"machineName":"H5P.AdvancedText","majorVersion":1,"minorVersion":1,"patchVersion":0,"preloadedDependencies":[]}`)

	// The registry requests "<machineName>/<major>.<minor>"; nginx
	// maps that straight onto a file at the same relative path.
	libDir := filepath.Join(hostDir, "H5P.AdvancedText")
	require.NoError(t, os.MkdirAll(libDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "1.1"), zipData, 0644))

	req := testcontainers.ContainerRequest{
		Image:        "nginx:alpine",
		ExposedPorts: []string{"80/tcp"},
		WaitingFor:   wait.ForHTTP("/H5P.AdvancedText/1.1").WithPort("80/tcp").WithStartupTimeout(30 * time.Second),
		Files: []testcontainers.ContainerFile{{
			HostFilePath:      hostDir,
			ContainerFilePath: "/usr/share/nginx/html",
			FileMode:          0755,
		}},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "http")
	require.NoError(t, err)

	reg := NewRegistry(endpoint, t.TempDir(), &http.Client{Timeout: 10 * time.Second})
	ref := book.LibraryRef{MachineName: "H5P.AdvancedText", MajorVersion: 1, MinorVersion: 1}

	resolved, err := reg.Resolve(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, ref, resolved.Ref)
	require.DirExists(t, resolved.Dir)
}
