// Package support contains the shared harness and step definitions for the
// CLI/server integration tests.
package support

import (
	"fmt"
	"os"
)

// TestContext holds the state for integration tests. Each scenario gets a
// fresh context so state cannot leak between scenarios.
type TestContext struct {
	// Test environment
	TempDir string

	// Server management
	HTTPTestServer *HTTPTestServerWrapper

	// HTTP response state
	LastHTTPStatusCode int
	LastHTTPResponse   string
	LastHTTPHeaders    map[string]string

	// Server configuration state
	APIKey          string
	TrackingEnabled bool
	JournalEnabled  bool
}

// NewTestContext creates a new test context with a private temp directory.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "keva-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &TestContext{
		TempDir:         tempDir,
		LastHTTPHeaders: map[string]string{},
		JournalEnabled:  true,
	}, nil
}

// Cleanup stops the server and removes all temporary state.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	if testCtx.HTTPTestServer != nil {
		if err := testCtx.stopTestHTTPServer(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop server: %w", err))
		}
	}

	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}
