package client

import (
	"context"

	"cube-panel/models"
)

func (c *Client) Status(ctx context.Context) (models.Status, error) {
	var s models.Status
	err := c.GetJSON(ctx, "/api/status", &s)
	return s, err
}

// Logs returns the device's recent log lines, oldest first.
func (c *Client) Logs(ctx context.Context) ([]string, error) {
	var out models.LogsResponse
	if err := c.GetJSON(ctx, "/api/logs", &out); err != nil {
		return nil, err
	}
	return out.Lines, nil
}

func (c *Client) Restart(ctx context.Context) error {
	return c.PostJSON(ctx, "/api/restart", struct{}{}, nil)
}

func (c *Client) ScanNetworks(ctx context.Context) ([]string, error) {
	var ssids []string
	err := c.GetJSON(ctx, "/api/scanNetworks", &ssids)
	return ssids, err
}

func (c *Client) SaveNetwork(ctx context.Context, n models.NetworkSettings) error {
	return c.PostJSON(ctx, "/api/network", n, nil)
}

func (c *Client) SendMessage(ctx context.Context, target, message string) error {
	return c.PostJSON(ctx, "/api/cube/send", models.SendMessageRequest{Target: target, Message: message}, nil)
}

// Messages returns recently sent messages, newest first.
func (c *Client) Messages(ctx context.Context) ([]models.CubeMessage, error) {
	var out models.MessagesResponse
	if err := c.GetJSON(ctx, "/api/cube/messages", &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *Client) SetPersonality(ctx context.Context, trait string, value int) error {
	return c.PostJSON(ctx, "/api/personality", models.PersonalityRequest{Trait: trait, Value: value}, nil)
}

// Personality returns the traits and the mood the device derives from them.
func (c *Client) Personality(ctx context.Context) (models.Personality, string, error) {
	var out struct {
		models.Personality
		Mood string `json:"mood"`
	}
	if err := c.GetJSON(ctx, "/api/personality", &out); err != nil {
		return models.Personality{}, "", err
	}
	return out.Personality, out.Mood, nil
}

func (c *Client) Trigger(ctx context.Context, event string) error {
	return c.PostJSON(ctx, "/trigger", models.TriggerRequest{Event: event}, nil)
}

func (c *Client) SetMode(ctx context.Context, cloud bool) error {
	return c.PostJSON(ctx, "/api/mode", models.ModeRequest{Cloud: cloud}, nil)
}
