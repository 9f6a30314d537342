package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kalambet/brandlens/internal/config"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":"Not found","message":"no route"}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestPartnersList(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/partners": `{"success":true,"count":1,"data":[{"id":"11111111-aaaa-bbbb-cccc-000000000001","name":"Alpine Spa","partnerType":"SPA","country":"AT","isActive":true}]}`,
	})

	client := ts.client()
	resp, err := client.get(ctx, "/api/partners")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	partners, err := decodeList[partnerRow](resp)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}

	if len(partners) != 1 {
		t.Fatalf("expected 1 partner, got %d", len(partners))
	}
	if partners[0].Name != "Alpine Spa" {
		t.Errorf("name = %q, want Alpine Spa", partners[0].Name)
	}
	if !partners[0].IsActive {
		t.Error("expected partner to be active")
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	if ts.requests[0].Auth != "Bearer test-token" {
		t.Errorf("auth = %q, want Bearer test-token", ts.requests[0].Auth)
	}
}

func TestPartnersCreate_SendsBody(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/partners": `{"success":true,"data":{"id":"p-1","name":"Alpine Spa","partnerType":"SPA","country":"AT"}}`,
	})

	client := ts.client()
	body := map[string]any{
		"name":        "Alpine Spa",
		"partnerType": "SPA",
		"country":     "AT",
	}
	resp, err := client.post(ctx, "/api/partners", body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	partner, err := decodeData[partnerRow](resp)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if partner.ID != "p-1" {
		t.Errorf("id = %q, want p-1", partner.ID)
	}

	var sent map[string]any
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &sent); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if sent["partnerType"] != "SPA" {
		t.Errorf("body.partnerType = %v, want SPA", sent["partnerType"])
	}
}

func TestPartnersCreate_MissingFlags(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"partners", "create", "--name", "Alpine Spa"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing flags")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("error = %q, want it to mention 'required'", err.Error())
	}
}

func TestObjectivesCreate_MissingFlags(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"objectives", "create", "--title", "Best spa"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing flags")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("error = %q, want it to mention 'required'", err.Error())
	}
}

func TestEvaluateSync_DecodesResults(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/evaluation": `{"success":true,"count":2,"data":[
			{"id":"e-1","objectiveId":"o-1","llmModel":"GPT_4O","status":"COMPLETED","mentionFound":true,"score":8.5,"scorePercentage":85,"isSuccessful":true},
			{"id":"e-2","objectiveId":"o-1","llmModel":"GEMINI_PRO","status":"FAILED","error":"rate limited"}
		]}`,
	})

	client := ts.client()
	resp, err := client.post(ctx, "/api/evaluation", map[string]any{"objectiveId": "o-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	evaluations, err := decodeList[evaluationRow](resp)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}

	if len(evaluations) != 2 {
		t.Fatalf("expected 2 evaluations, got %d", len(evaluations))
	}
	if evaluations[0].ScorePercentage == nil || *evaluations[0].ScorePercentage != 85 {
		t.Errorf("scorePercentage = %v, want 85", evaluations[0].ScorePercentage)
	}
	if !evaluations[0].IsSuccessful {
		t.Error("expected first evaluation to be successful")
	}
	if evaluations[1].Status != "FAILED" {
		t.Errorf("status = %q, want FAILED", evaluations[1].Status)
	}
	if evaluations[1].Error != "rate limited" {
		t.Errorf("error = %q, want rate limited", evaluations[1].Error)
	}
}

func TestEvaluateQueue_CreatesExecution(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/executions": `{"success":true,"data":{"id":"x-1","objectiveId":"o-1","status":"pending"}}`,
	})

	client := ts.client()
	resp, err := client.post(ctx, "/api/executions", map[string]any{"objectiveId": "o-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	execution, err := decodeData[executionRow](resp)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if execution.Status != "pending" {
		t.Errorf("status = %q, want pending", execution.Status)
	}

	var sent map[string]any
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &sent); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if sent["objectiveId"] != "o-1" {
		t.Errorf("body.objectiveId = %v, want o-1", sent["objectiveId"])
	}
}

func TestDashboardStatsDecode(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/dashboard/stats": `{"success":true,"data":{"totalPartners":3,"activeObjectives":2,"totalEvaluations":10,"successRate":60}}`,
	})

	client := ts.client()
	resp, err := client.get(ctx, "/api/dashboard/stats")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats, err := decodeData[dashboardStats](resp)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if stats.TotalPartners != 3 {
		t.Errorf("totalPartners = %d, want 3", stats.TotalPartners)
	}
	if stats.SuccessRate != 60 {
		t.Errorf("successRate = %d, want 60", stats.SuccessRate)
	}
}

func TestRecentEvaluationsDecode(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/dashboard/recent-evaluations": `{"success":true,"count":1,"data":[{"id":"e-9","partnerName":"Alpine Spa","productName":"Day Pass","objectiveTitle":"Best spa","modelCount":2,"totalModels":3,"avgScore":7.5,"status":"COMPLETED"}]}`,
	})

	client := ts.client()
	resp, err := client.get(ctx, "/api/dashboard/recent-evaluations")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	recent, err := decodeList[recentEvaluation](resp)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 row, got %d", len(recent))
	}
	if recent[0].AvgScore == nil || *recent[0].AvgScore != 7.5 {
		t.Errorf("avgScore = %v, want 7.5", recent[0].AvgScore)
	}
	if recent[0].TotalModels != 3 {
		t.Errorf("totalModels = %d, want 3", recent[0].TotalModels)
	}
}

func TestStatusCommand_Stopped(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	ts.server.Close()

	client := ts.client()
	_, err := client.get(ctx, "/health")
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestDecodeJSON_ErrorMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		w.Write([]byte(`{"error":"Objective not found","message":"no objective found with ID: missing"}`))
	}))
	defer ts.Close()

	client := &apiClient{
		baseURL:    ts.URL,
		token:      "test",
		httpClient: ts.Client(),
	}

	resp, err := client.get(ctx, "/api/objectives/missing")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var result any
	err = decodeJSON(resp, &result)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %q, want it to contain '404'", err.Error())
	}
	if !strings.Contains(err.Error(), "no objective found") {
		t.Errorf("error = %q, want the server message surfaced", err.Error())
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()
	t.Setenv("NO_COLOR", "")

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestNoColorEnv(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()
	noColor = false

	t.Setenv("NO_COLOR", "1")
	result := colorize(colorGreen, "test message")
	if result != "test message" {
		t.Errorf("colorize with NO_COLOR set should strip ANSI codes, got %q", result)
	}
}

func TestConfigShowAll(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.Port = 4000
	cfg.Log.Level = "info"

	keys := config.ShowAll(cfg)
	if len(keys) == 0 {
		t.Fatal("expected non-empty keys from ShowAll")
	}

	found := false
	for _, k := range keys {
		if k.Key == "server.port" && k.Value == "4000" {
			found = true
		}
	}
	if !found {
		t.Error("expected to find server.port=4000 in ShowAll output")
	}
}

func TestAPIClientAuth(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /health": `{"status":"ok"}`,
	})

	client := ts.client()
	client.token = "my-secret-token"

	resp, err := client.get(ctx, "/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	if ts.requests[0].Auth != "Bearer my-secret-token" {
		t.Errorf("auth = %q, want 'Bearer my-secret-token'", ts.requests[0].Auth)
	}
}

func TestExecutionStatusLabel(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()
	noColor = true

	tests := []struct {
		status, want string
	}{
		{"completed", "completed"},
		{"failed", "failed"},
		{"running", "running"},
		{"pending", "pending"},
	}
	for _, tt := range tests {
		got := executionStatusLabel(tt.status)
		if got != tt.want {
			t.Errorf("executionStatusLabel(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestPIDFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := pidFilePath(dir)

	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}

	pid, err := readPIDFile(path)
	if err != nil {
		t.Fatalf("readPIDFile: %v", err)
	}
	if pid <= 0 {
		t.Errorf("pid = %d, want positive", pid)
	}

	removePIDFile(path)
	if _, err := readPIDFile(path); err == nil {
		t.Error("expected error reading removed PID file")
	}
}

func TestModelNames(t *testing.T) {
	names := modelNames()
	if len(names) == 0 {
		t.Fatal("expected known models")
	}
	joined := fmt.Sprintf("%v", names)
	if !strings.Contains(joined, "GPT_4O") {
		t.Errorf("models %v should include GPT_4O", names)
	}
}
