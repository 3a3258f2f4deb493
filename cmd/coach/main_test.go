package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Jayden1717/fitness-companion/internal/api"
)

func TestRunHelp(t *testing.T) {
	for _, args := range [][]string{nil, {"help"}, {"-h"}, {"--help"}} {
		var out bytes.Buffer
		if err := run(context.Background(), &out, &out, strings.NewReader(""), args); err != nil {
			t.Fatalf("run(%v): %v", args, err)
		}
		if !strings.Contains(out.String(), "Usage:") {
			t.Errorf("run(%v) output missing usage:\n%s", args, out.String())
		}
	}
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), &out, &out, strings.NewReader(""), []string{"version"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "coach") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), &out, &out, strings.NewReader(""), []string{"frobnicate"})
	if err == nil || !strings.Contains(err.Error(), "frobnicate") {
		t.Errorf("err = %v, want unknown command error", err)
	}
}

func TestRunUnknownFlag(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), &out, &out, strings.NewReader(""), []string{"-bogus"})
	if err == nil || !strings.Contains(err.Error(), "unknown flag") {
		t.Errorf("err = %v, want unknown flag error", err)
	}
}

func TestRunAskRequiresQuestion(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), &out, &out, strings.NewReader(""), []string{"ask"})
	if err == nil || !strings.Contains(err.Error(), "usage") {
		t.Errorf("err = %v, want usage error", err)
	}
}

func coachStub(t *testing.T, advice string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coach" || r.Method != "POST" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req api.CoachRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		json.NewEncoder(w).Encode(api.CoachResponse{Advice: advice})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunAsk(t *testing.T) {
	srv := coachStub(t, "Spin easy today.")

	var out bytes.Buffer
	args := []string{"-server", srv.URL, "-user", "alice", "ask", "should", "I", "rest?"}
	if err := run(context.Background(), &out, &out, strings.NewReader(""), args); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Spin easy today.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunChat(t *testing.T) {
	srv := coachStub(t, "Nice ride.")

	var out bytes.Buffer
	stdin := strings.NewReader("how was my week?\nexit\n")
	args := []string{"-server=" + srv.URL, "chat"}
	if err := run(context.Background(), &out, &out, stdin, args); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Nice ride.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestAskCoachServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom","code":500}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := askCoach(context.Background(), srv.Client(), srv.URL, "alice", "hi")
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("err = %v, want server error", err)
	}
}
