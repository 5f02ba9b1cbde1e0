package client

import (
	"context"
	"net/url"
	"strings"

	"hostelhub-backend-go/internal/services"

	"github.com/gorilla/websocket"
)

// Listen streams server push events to handle until ctx ends or the socket
// drops. Callers fall back to a Poller when it returns an error.
func (c *Client) Listen(ctx context.Context, handle func(services.Event)) error {
	token := c.Session.Token()
	if token == "" {
		return ErrNoSession
	}
	wsURL := strings.Replace(c.BaseURL, "http", "ws", 1) + "/ws/events?token=" + url.QueryEscape(token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()
	for {
		var event services.Event
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		handle(event)
	}
}
