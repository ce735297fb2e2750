package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// FCMGateway posts messages to the Firebase Cloud Messaging legacy HTTP endpoint.
type FCMGateway struct {
	endpoint  string
	serverKey string
	timeout   time.Duration
}

// NewFCMGateway creates a gateway for endpoint authenticated by serverKey.
func NewFCMGateway(endpoint, serverKey string, timeout time.Duration) *FCMGateway {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &FCMGateway{endpoint: endpoint, serverKey: serverKey, timeout: timeout}
}

type fcmRequest struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

func (g *FCMGateway) Send(ctx context.Context, msg Message) error {
	timeout := g.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	agent := fiber.Post(g.endpoint)
	agent.Set(fiber.HeaderAuthorization, "key="+g.serverKey)
	agent.JSON(fcmRequest{
		To:           msg.Token,
		Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
	})
	agent.Timeout(timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("fcm request: %w", errs[0])
	}
	if code != fiber.StatusOK {
		return fmt.Errorf("fcm responded %d: %s", code, string(body))
	}
	var resp fcmResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode fcm response: %w", err)
	}
	if resp.Failure > 0 && resp.Success == 0 {
		return fmt.Errorf("fcm rejected message: %s", string(body))
	}
	return nil
}
