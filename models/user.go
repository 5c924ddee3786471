package models

import "time"

// Client is a paired (or pairing) control-panel client as recorded by the device.
type Client struct {
	ClientID        string    `json:"client_id"`
	InitialCodeHash string    `json:"-"`
	AuthCode        string    `json:"-"`
	Role            int       `json:"role"`
	CreatedAt       time.Time `json:"created_at"`
}

// InitCodeResponse is returned by GET /CubeAuth-initCode.
type InitCodeResponse struct {
	Success     bool   `json:"success"`
	InitialCode string `json:"initial_code,omitempty"`
	Message     string `json:"message,omitempty"`
}

// AuthHeaderResponse is returned by GET /CubeAuth-authHeader.
type AuthHeaderResponse struct {
	Success  bool   `json:"success"`
	AuthCode string `json:"auth_code,omitempty"`
	Message  string `json:"message,omitempty"`
}
