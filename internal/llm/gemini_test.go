package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func geminiTextBody(text string) string {
	return `{
		"candidates": [{
			"content": {"role": "model", "parts": [{"text": ` + jsonString(text) + `}]},
			"finishReason": "STOP"
		}],
		"usageMetadata": {"promptTokenCount": 10, "candidatesTokenCount": 5}
	}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestChatText(t *testing.T) {
	var gotPath, gotKey string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		gotBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, geminiTextBody("Keep your cadence up."))
	}))
	defer srv.Close()

	c := NewGeminiClient("test-key", nil)
	c.SetBaseURL(srv.URL)

	resp, err := c.Chat(context.Background(), "gemini-2.5-flash", "You are a coach.",
		[]Message{{Role: RoleUser, Content: "hi"}},
		[]ToolDeclaration{{Name: "my_progression", Description: "check progression"}})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	if gotPath != "/models/gemini-2.5-flash:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
	if resp.Message.Content != "Keep your cadence up." {
		t.Errorf("content = %q", resp.Message.Content)
	}
	if resp.HasToolCalls() {
		t.Error("unexpected tool calls")
	}
	if resp.InputTokens != 10 || resp.OutputTokens != 5 {
		t.Errorf("tokens = %d/%d", resp.InputTokens, resp.OutputTokens)
	}
	if resp.FinishReason != "STOP" {
		t.Errorf("finish reason = %q", resp.FinishReason)
	}

	// Request payload: system instruction, contents, and declarations.
	var req geminiRequest
	if err := json.Unmarshal(gotBody, &req); err != nil {
		t.Fatalf("unmarshal request: %v", err)
	}
	if req.SystemInstruction == nil || req.SystemInstruction.Parts[0].Text != "You are a coach." {
		t.Errorf("systemInstruction = %+v", req.SystemInstruction)
	}
	if len(req.Contents) != 1 || req.Contents[0].Role != RoleUser {
		t.Errorf("contents = %+v", req.Contents)
	}
	if len(req.Tools) != 1 || len(req.Tools[0].FunctionDeclarations) != 1 ||
		req.Tools[0].FunctionDeclarations[0].Name != "my_progression" {
		t.Errorf("tools = %+v", req.Tools)
	}
}

func TestChatToolCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"candidates": [{
				"content": {"role": "model", "parts": [
					{"functionCall": {"name": "analyze_ride", "args": {"activity_id": 42}}}
				]},
				"finishReason": "STOP"
			}]
		}`)
	}))
	defer srv.Close()

	c := NewGeminiClient("k", nil)
	c.SetBaseURL(srv.URL)

	resp, err := c.Chat(context.Background(), "m", "", []Message{{Role: RoleUser, Content: "analyze 42"}}, nil)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !resp.HasToolCalls() {
		t.Fatal("expected tool calls")
	}
	tc := resp.Message.ToolCalls[0]
	if tc.Name != "analyze_ride" {
		t.Errorf("tool = %q", tc.Name)
	}
	if id, ok := tc.Args["activity_id"].(float64); !ok || id != 42 {
		t.Errorf("args = %v", tc.Args)
	}
}

func TestChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "API key not valid"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewGeminiClient("bad", nil)
	c.SetBaseURL(srv.URL)

	_, err := c.Chat(context.Background(), "m", "", []Message{{Role: RoleUser, Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "API key not valid") {
		t.Errorf("err = %v", err)
	}
}

func TestChatNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates": []}`)
	}))
	defer srv.Close()

	c := NewGeminiClient("k", nil)
	c.SetBaseURL(srv.URL)

	_, err := c.Chat(context.Background(), "m", "", []Message{{Role: RoleUser, Content: "hi"}}, nil)
	if err == nil || !strings.Contains(err.Error(), "no candidates") {
		t.Errorf("err = %v", err)
	}
}

func TestConvertToGemini(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: "how was my week?"},
		{Role: RoleModel, ToolCalls: []ToolCall{{Name: "my_recent_activities"}}},
		{Role: RoleTool, ToolName: "my_recent_activities", Content: "Found 1 activities..."},
		{Role: RoleModel, Content: "Solid week."},
	}

	contents := convertToGemini(messages)
	if len(contents) != 4 {
		t.Fatalf("got %d contents, want 4", len(contents))
	}

	if contents[0].Role != RoleUser || contents[0].Parts[0].Text != "how was my week?" {
		t.Errorf("content 0 = %+v", contents[0])
	}

	// Replayed tool directive keeps the model role and functionCall part.
	if contents[1].Role != RoleModel || contents[1].Parts[0].FunctionCall == nil ||
		contents[1].Parts[0].FunctionCall.Name != "my_recent_activities" {
		t.Errorf("content 1 = %+v", contents[1])
	}

	// Tool outcomes travel as user-role functionResponse parts.
	fr := contents[2].Parts[0].FunctionResponse
	if contents[2].Role != RoleUser || fr == nil {
		t.Fatalf("content 2 = %+v", contents[2])
	}
	if fr.Name != "my_recent_activities" || fr.Response["result"] != "Found 1 activities..." {
		t.Errorf("functionResponse = %+v", fr)
	}

	if contents[3].Role != RoleModel || contents[3].Parts[0].Text != "Solid week." {
		t.Errorf("content 3 = %+v", contents[3])
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("path = %q", r.URL.Path)
		}
		io.WriteString(w, `{"models": []}`)
	}))
	defer srv.Close()

	c := NewGeminiClient("k", nil)
	c.SetBaseURL(srv.URL)

	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestHasToolCalls(t *testing.T) {
	r := &ChatResponse{Message: Message{Content: "text"}}
	if r.HasToolCalls() {
		t.Error("text-only response reports tool calls")
	}
	r.Message.ToolCalls = []ToolCall{{Name: "x"}}
	if !r.HasToolCalls() {
		t.Error("tool-call response not detected")
	}
}
