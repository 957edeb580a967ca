package support

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
)

// RegisterServerSteps registers the server and HTTP step definitions.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a running keva server$`, testCtx.aRunningServer)
	sc.Step(`^a running keva server with journey tracking enabled$`, testCtx.aRunningServerWithTracking)
	sc.Step(`^a running keva server requiring API key "([^"]*)"$`, testCtx.aRunningServerWithAPIKey)
	sc.Step(`^the server is restarted$`, testCtx.theServerIsRestarted)

	sc.Step(`^I put "([^"]*)" with value "([^"]*)"$`, testCtx.iPutValue)
	sc.Step(`^I put "([^"]*)" with value "([^"]*)" using API key "([^"]*)"$`, testCtx.iPutValueWithAPIKey)
	sc.Step(`^I get "([^"]*)"$`, testCtx.iGetKey)
	sc.Step(`^I delete "([^"]*)"$`, testCtx.iDeleteKey)
	sc.Step(`^I request the key list$`, testCtx.iRequestKeyList)
	sc.Step(`^I request the health endpoint$`, testCtx.iRequestHealth)
	sc.Step(`^I request the journey report$`, testCtx.iRequestJourneyReport)

	sc.Step(`^the response status should be (\d+)$`, testCtx.responseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.responseShouldContain)
	sc.Step(`^the response should not contain "([^"]*)"$`, testCtx.responseShouldNotContain)
	sc.Step(`^the journey report should cover (\d+) operations$`, testCtx.journeyReportShouldCoverOperations)
	sc.Step(`^the journey report should include stage "([^"]*)"$`, testCtx.journeyReportShouldIncludeStage)
}

func (testCtx *TestContext) aRunningServer() error {
	return testCtx.startTestHTTPServer()
}

func (testCtx *TestContext) aRunningServerWithTracking() error {
	testCtx.TrackingEnabled = true
	return testCtx.startTestHTTPServer()
}

func (testCtx *TestContext) aRunningServerWithAPIKey(key string) error {
	testCtx.APIKey = key
	return testCtx.startTestHTTPServer()
}

// theServerIsRestarted tears the server down and brings a fresh instance up
// against the same data directory, forcing a journal replay.
func (testCtx *TestContext) theServerIsRestarted() error {
	if err := testCtx.stopTestHTTPServer(); err != nil {
		return err
	}
	return testCtx.startTestHTTPServer()
}

func (testCtx *TestContext) doRequest(method, path, body, apiKey string) error {
	if testCtx.HTTPTestServer == nil {
		return fmt.Errorf("no server is running")
	}

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, testCtx.serverURL(path), reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(respBody)
	testCtx.LastHTTPHeaders = map[string]string{}
	for name := range resp.Header {
		testCtx.LastHTTPHeaders[name] = resp.Header.Get(name)
	}
	return nil
}

func (testCtx *TestContext) iPutValue(key, value string) error {
	return testCtx.doRequest(http.MethodPut, "/kv/"+key, value, "")
}

func (testCtx *TestContext) iPutValueWithAPIKey(key, value, apiKey string) error {
	return testCtx.doRequest(http.MethodPut, "/kv/"+key, value, apiKey)
}

func (testCtx *TestContext) iGetKey(key string) error {
	return testCtx.doRequest(http.MethodGet, "/kv/"+key, "", "")
}

func (testCtx *TestContext) iDeleteKey(key string) error {
	return testCtx.doRequest(http.MethodDelete, "/kv/"+key, "", "")
}

func (testCtx *TestContext) iRequestKeyList() error {
	return testCtx.doRequest(http.MethodGet, "/keys", "", "")
}

func (testCtx *TestContext) iRequestHealth() error {
	return testCtx.doRequest(http.MethodGet, "/health", "", "")
}

func (testCtx *TestContext) iRequestJourneyReport() error {
	return testCtx.doRequest(http.MethodGet, "/admin/journeys", "", "")
}

func (testCtx *TestContext) responseStatusShouldBe(expected int) error {
	if testCtx.LastHTTPStatusCode != expected {
		return fmt.Errorf("expected status %d, got %d (body: %s)",
			expected, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) responseShouldContain(substr string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, substr) {
		return fmt.Errorf("expected response to contain %q, got: %s", substr, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) responseShouldNotContain(substr string) error {
	if strings.Contains(testCtx.LastHTTPResponse, substr) {
		return fmt.Errorf("expected response to not contain %q, got: %s", substr, testCtx.LastHTTPResponse)
	}
	return nil
}

// journeyReport is the shape of the /admin/journeys response that the
// integration steps care about.
type journeyReport struct {
	Stages     map[string]json.RawMessage `json:"stages"`
	Operations int64                      `json:"operations"`
}

func (testCtx *TestContext) parseJourneyReport() (*journeyReport, error) {
	var report journeyReport
	if err := json.Unmarshal([]byte(testCtx.LastHTTPResponse), &report); err != nil {
		return nil, fmt.Errorf("failed to parse journey report: %w (body: %s)", err, testCtx.LastHTTPResponse)
	}
	return &report, nil
}

func (testCtx *TestContext) journeyReportShouldCoverOperations(expected int) error {
	report, err := testCtx.parseJourneyReport()
	if err != nil {
		return err
	}
	if report.Operations != int64(expected) {
		return fmt.Errorf("expected %d operations in journey report, got %d", expected, report.Operations)
	}
	return nil
}

func (testCtx *TestContext) journeyReportShouldIncludeStage(stage string) error {
	report, err := testCtx.parseJourneyReport()
	if err != nil {
		return err
	}
	if _, ok := report.Stages[stage]; !ok {
		return fmt.Errorf("journey report does not include stage %q (body: %s)", stage, testCtx.LastHTTPResponse)
	}
	return nil
}
