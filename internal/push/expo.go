package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// DefaultExpoURL is the Expo push API endpoint used for ios and android tokens.
const DefaultExpoURL = "https://exp.host/--/api/v2/push/send"

type expoSender struct {
	url         string
	accessToken string
	httpClient  *http.Client
}

type expoMessage struct {
	To       string            `json:"to"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Sound    string            `json:"sound,omitempty"`
	Priority string            `json:"priority,omitempty"`
}

type expoTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id"`
	Message string `json:"message"`
	Details struct {
		Error string `json:"error"`
	} `json:"details"`
}

type expoResponse struct {
	Data   []expoTicket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (s *expoSender) send(ctx context.Context, token string, msg Message) error {
	body, err := json.Marshal([]expoMessage{{
		To:       token,
		Title:    msg.Title,
		Body:     msg.Body,
		Data:     msg.Data,
		Sound:    "default",
		Priority: "high",
	}})
	if err != nil {
		return fmt.Errorf("marshal expo message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.accessToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send expo push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("expo push service returned %d", resp.StatusCode)
	}

	var out expoResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode expo response: %w", err)
	}
	if len(out.Errors) > 0 {
		return fmt.Errorf("expo push: %s: %s", out.Errors[0].Code, out.Errors[0].Message)
	}
	if len(out.Data) != 1 {
		return fmt.Errorf("expo push: got %d tickets, want 1", len(out.Data))
	}

	ticket := out.Data[0]
	if ticket.Status == "ok" {
		return nil
	}
	if ticket.Details.Error == "DeviceNotRegistered" {
		return ErrExpired
	}
	return fmt.Errorf("expo push: %s: %s", ticket.Details.Error, ticket.Message)
}
