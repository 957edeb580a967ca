package support

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/MeKo-Tech/keva/internal/server"
)

// HTTPTestServerWrapper wraps httptest.Server for integration tests.
type HTTPTestServerWrapper struct {
	Server     *httptest.Server
	TestServer *server.Server
}

// startTestHTTPServer builds a real keva server backed by the scenario's temp
// directory and serves it over httptest.
func (testCtx *TestContext) startTestHTTPServer() error {
	if testCtx.HTTPTestServer != nil {
		return nil
	}

	cfg := server.Config{
		Host:            "127.0.0.1",
		Port:            0,
		CORSOrigin:      "*",
		APIKey:          testCtx.APIKey,
		MaxBodyMB:       16,
		TimeoutSec:      30,
		DataDir:         testCtx.TempDir,
		JournalEnabled:  testCtx.JournalEnabled,
		TrackingEnabled: testCtx.TrackingEnabled,
	}

	kevaServer, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	mux := http.NewServeMux()
	kevaServer.SetupRoutes(mux)

	testCtx.HTTPTestServer = &HTTPTestServerWrapper{
		Server:     httptest.NewServer(mux),
		TestServer: kevaServer,
	}
	return nil
}

// stopTestHTTPServer shuts the server down and releases its resources.
func (testCtx *TestContext) stopTestHTTPServer() error {
	if testCtx.HTTPTestServer == nil {
		return nil
	}

	testCtx.HTTPTestServer.Server.Close()
	err := testCtx.HTTPTestServer.TestServer.Close()
	testCtx.HTTPTestServer = nil
	return err
}

// serverURL joins the scenario server's base URL with a request path.
func (testCtx *TestContext) serverURL(path string) string {
	return testCtx.HTTPTestServer.Server.URL + "/" + strings.TrimPrefix(path, "/")
}
