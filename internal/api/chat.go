package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ChatSource identifies a knowledge chunk cited in a chat answer.
type ChatSource struct {
	DataSourceID int     `json:"data_source_id"`
	DocumentName string  `json:"document_name"`
	Score        float64 `json:"score"`
}

// ChatAnswer is the response to a one-shot chat message.
type ChatAnswer struct {
	Answer  string       `json:"answer"`
	Sources []ChatSource `json:"sources,omitempty"`
}

// Ask sends a chat message against the workspace's knowledge base and
// returns the synthesized answer.
func (c *Client) Ask(ctx context.Context, workspaceID int, message string) (*ChatAnswer, error) {
	payload := map[string]any{
		"workspace_id": workspaceID,
		"message":      message,
	}
	var result ChatAnswer
	if err := c.do(ctx, "POST", "/api/query/chat/message", payload, &result); err != nil {
		return nil, fmt.Errorf("chat message: %w", err)
	}
	return &result, nil
}

// Chat stream protocol message types.
const (
	chatSubscribe = "subscribe"
	chatNext      = "next"
	chatError     = "error"
	chatComplete  = "complete"
	chatKeepAlive = "ka"
)

// chatMessage is a chat stream protocol envelope.
type chatMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// chatSubscribePayload starts a streamed chat answer.
type chatSubscribePayload struct {
	WorkspaceID int    `json:"workspace_id"`
	Message     string `json:"message"`
}

// chatStreamEvent is one token of a streamed answer.
type chatStreamEvent struct {
	Token string  `json:"token"`
	Done  bool    `json:"done"`
	Error *string `json:"error,omitempty"`
}

// AskStream sends a chat message and streams the answer token by token.
// The onToken callback is invoked for each token. Return an error from
// onToken to abort.
func (c *Client) AskStream(ctx context.Context, workspaceID int, message string, onToken func(token string) error) error {
	wsEndpoint := c.baseURL + "/api/query/chat/stream"
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	u, err := url.Parse(wsEndpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	var header map[string][]string
	if c.token != "" {
		header = map[string][]string{"Authorization": {"Bearer " + c.token}}
	}

	conn, _, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	defer conn.Close()

	// Track connection state for proper cleanup
	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	payload, _ := json.Marshal(chatSubscribePayload{
		WorkspaceID: workspaceID,
		Message:     message,
	})
	subMsg := chatMessage{
		ID:      uuid.New().String(),
		Type:    chatSubscribe,
		Payload: payload,
	}
	if err := conn.WriteJSON(subMsg); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}

	// Handle context cancellation in a separate goroutine
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	for {
		var msg chatMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read message: %w", err)
		}

		switch msg.Type {
		case chatNext:
			var event chatStreamEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				return fmt.Errorf("unmarshal next payload: %w", err)
			}

			if event.Error != nil {
				return fmt.Errorf("stream error: %s", *event.Error)
			}

			if event.Token != "" {
				if err := onToken(event.Token); err != nil {
					return err
				}
			}

			if event.Done {
				return nil
			}

		case chatError:
			var eb errorBody
			if err := json.Unmarshal(msg.Payload, &eb); err != nil || eb.Detail == "" {
				return fmt.Errorf("stream error: %s", string(msg.Payload))
			}
			return fmt.Errorf("stream error: %s", eb.Detail)

		case chatComplete:
			return nil

		case chatKeepAlive:
			continue

		default:
			continue
		}
	}
}
