package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Border(lipgloss.NormalBorder()).Padding(0, 1)
	testStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

type TestClient struct {
	baseURL string
	client  *http.Client
}

func newTestClient() *TestClient {
	return &TestClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (tc *TestClient) testHealthCheck() bool {
	printTestHeader("Testing Health Check Endpoint")

	status, body, err := tc.do(http.MethodGet, "/health", "")
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		return false
	}

	var resp map[string]any
	if err := json.Unmarshal(body, &resp); err != nil || resp["status"] != "ok" {
		printError(fmt.Sprintf("Expected {\"status\":\"ok\"}, got '%s'", string(body)))
		return false
	}

	printSuccess("Health check passed")
	return true
}

func (tc *TestClient) testAgentCard() bool {
	printTestHeader("Testing Agent Card Endpoint")

	status, body, err := tc.do(http.MethodGet, "/.well-known/agent.json", "")
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		fmt.Printf("Response: %s\n", string(body))
		return false
	}

	var card map[string]any
	if err := json.Unmarshal(body, &card); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}

	for _, field := range []string{"name", "description", "version", "capabilities", "endpoints", "inputSchema"} {
		if _, ok := card[field]; !ok {
			printError(fmt.Sprintf("Missing required field: %s", field))
			return false
		}
	}

	printSuccess("Agent card is valid")
	return true
}

func (tc *TestClient) testAnalysis(stateJSON string) bool {
	printTestHeader("Testing State Analysis")

	if !json.Valid([]byte(stateJSON)) {
		printError("State profile is not valid JSON")
		return false
	}
	payload := `{"state": ` + stateJSON + `}`
	fmt.Println(labelStyle.Render("Request:"))
	printJSON([]byte(payload))

	return tc.expectAnalysis("/api/gemini-analysis", payload)
}

func (tc *TestClient) testPrompt(text string) bool {
	printTestHeader("Testing Free-Text Prompt")

	payload, _ := json.Marshal(map[string]string{"prompt": text})
	return tc.expectAnalysis("/api/gemini", string(payload))
}

func (tc *TestClient) testMethodNotAllowed() bool {
	printTestHeader("Testing Method Validation")

	status, _, err := tc.do(http.MethodGet, "/api/gemini-analysis", "")
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	if status != http.StatusMethodNotAllowed {
		printError(fmt.Sprintf("Expected status 405, got %d", status))
		return false
	}

	printSuccess("GET rejected with 405")
	return true
}

func (tc *TestClient) testInvalidInput() bool {
	printTestHeader("Testing Input Validation")

	status, body, err := tc.do(http.MethodPost, "/api/gemini-analysis", `{}`)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	// A server without a key answers 500 before looking at the body.
	if status != http.StatusBadRequest && status != http.StatusInternalServerError {
		printError(fmt.Sprintf("Expected status 400, got %d: %s", status, string(body)))
		return false
	}

	printSuccess(fmt.Sprintf("Empty body rejected with %d", status))
	return true
}

func (tc *TestClient) expectAnalysis(path, payload string) bool {
	status, body, err := tc.do(http.MethodPost, path, payload)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		printJSON(body)
		return false
	}

	var resp struct {
		Analysis string `json:"analysis"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}
	if resp.Analysis == "" {
		printError("Response has an empty analysis")
		return false
	}

	printSuccess("Analysis generated")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println(resp.Analysis)
	fmt.Println(strings.Repeat("=", 80))
	return true
}

func (tc *TestClient) do(method, path, body string) (int, []byte, error) {
	url := tc.baseURL + path
	fmt.Printf("%s %s\n", method, url)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}

func printHeader(text string) {
	fmt.Println(headerStyle.Render(text))
	fmt.Println()
}

func printTestHeader(text string) {
	fmt.Println(testStyle.Render("[TEST] " + text))
	fmt.Println(strings.Repeat("-", 80))
}

func printSuccess(text string) {
	fmt.Println(successStyle.Render("✓ " + text))
}

func printError(text string) {
	fmt.Println(errorStyle.Render("✗ " + text))
}

func printJSON(data []byte) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err == nil {
		fmt.Println(pretty.String())
		return
	}
	fmt.Println(string(data))
}
