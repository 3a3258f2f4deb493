package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Jayden1717/fitness-companion/internal/api"
	"github.com/Jayden1717/fitness-companion/internal/httpkit"
)

// askCoach posts one utterance to a running server and returns the advice.
func askCoach(ctx context.Context, client *http.Client, serverURL, userID, utterance string) (string, error) {
	body, err := json.Marshal(api.CoachRequest{UserID: userID, Utterance: utterance})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", serverURL+"/coach", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 2048)
		return "", fmt.Errorf("server error %d: %s", resp.StatusCode, body)
	}

	var cr api.CoachResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return cr.Advice, nil
}

// coachHTTPClient allows for a full agent run: up to ten model
// round-trips before the server answers.
func coachHTTPClient() *http.Client {
	return httpkit.NewClient(httpkit.WithTimeout(5 * time.Minute))
}

// runAsk sends a single question and prints the answer.
func runAsk(ctx context.Context, stdout io.Writer, serverURL, userID, question string) error {
	advice, err := askCoach(ctx, coachHTTPClient(), serverURL, userID, question)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, advice)
	return nil
}

// runChat is an interactive line-based chat against a running server.
// Type 'exit' or 'quit' (or close stdin) to leave.
func runChat(ctx context.Context, stdout io.Writer, stdin io.Reader, serverURL, userID string) error {
	client := coachHTTPClient()

	fmt.Fprintf(stdout, "Crank'd cycling coach — chatting as %s (type 'exit' to quit)\n", userID)

	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		advice, err := askCoach(ctx, client, serverURL, userID, line)
		if err != nil {
			fmt.Fprintf(stdout, "error: %v\n", err)
			continue
		}
		fmt.Fprintf(stdout, "\n%s\n\n", advice)
	}
	return scanner.Err()
}
