package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/google/uuid"

	"github.com/minsnailee/llm-detective/internal/handlers"
)

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func decodeError(statusCode int, body []byte, action string) error {
	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil {
		return fmt.Errorf("API returned status %d: %s", statusCode, string(body))
	}
	return fmt.Errorf("%s: %s", action, errorResp.Error)
}

func listScenarios(client *http.Client, baseURL string) ([]string, map[string]string, error) {
	resp, err := client.Get(baseURL + "/v1/scenarios")
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, decodeError(resp.StatusCode, body, "failed to list scenarios")
	}

	var scenarioMap map[string]string
	if err := json.Unmarshal(body, &scenarioMap); err != nil {
		return nil, nil, fmt.Errorf("failed to parse scenarios response: %w", err)
	}

	orderedNames := make([]string, 0, len(scenarioMap))
	for name := range scenarioMap {
		orderedNames = append(orderedNames, name)
	}
	sort.Strings(orderedNames)

	return orderedNames, scenarioMap, nil
}

func createSession(client *http.Client, baseURL string, scenarioFile string) (*handlers.SessionResponse, error) {
	req := handlers.CreateSessionRequest{
		Scenario: scenarioFile,
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/sessions",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, decodeError(resp.StatusCode, body, "failed to create session")
	}

	var session handlers.SessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	return &session, nil
}

func getSession(client *http.Client, baseURL string, id uuid.UUID) (*handlers.SessionResponse, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/sessions/%s", baseURL, id))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, body, "failed to get session")
	}

	var session handlers.SessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	return &session, nil
}

func sendAsk(client *http.Client, baseURL string, id uuid.UUID, suspectName, userText string) (*handlers.AskTurnResponse, error) {
	req := handlers.AskTurnRequest{
		SuspectName: suspectName,
		UserText:    userText,
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/sessions/%s/ask", baseURL, id),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, body, "ask failed")
	}

	var askResp handlers.AskTurnResponse
	if err := json.Unmarshal(body, &askResp); err != nil {
		return nil, fmt.Errorf("failed to parse ask response: %w", err)
	}
	return &askResp, nil
}

func getTranscript(client *http.Client, baseURL string, id uuid.UUID, speaker string) (*handlers.TranscriptResponse, error) {
	url := fmt.Sprintf("%s/v1/sessions/%s/transcript", baseURL, id)
	if speaker != "" {
		url += "?speaker=" + speaker
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, body, "failed to get transcript")
	}

	var transcript handlers.TranscriptResponse
	if err := json.Unmarshal(body, &transcript); err != nil {
		return nil, fmt.Errorf("failed to parse transcript response: %w", err)
	}
	return &transcript, nil
}

func saveNotes(client *http.Client, baseURL string, id uuid.UUID, text string) error {
	jsonData, err := json.Marshal(handlers.NotesRequest{Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPut,
		fmt.Sprintf("%s/v1/sessions/%s/notes", baseURL, id),
		bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return decodeError(resp.StatusCode, body, "failed to save notes")
	}
	return nil
}

func endCase(client *http.Client, baseURL string, id uuid.UUID) (map[string]interface{}, error) {
	resp, err := client.Post(
		fmt.Sprintf("%s/v1/sessions/%s/end", baseURL, id),
		"application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, body, "failed to end case")
	}

	var report map[string]interface{}
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report response: %w", err)
	}
	return report, nil
}
