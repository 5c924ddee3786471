package models

import "time"

// CubeMessage is a message sent from this cube to another cube.
type CubeMessage struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Target  string    `json:"target"`
	Message string    `json:"message"`
	Status  string    `json:"status"` // "sent", then "ack"
}

const (
	MessageStatusSent = "sent"
	MessageStatusAck  = "ack"
)

type SendMessageRequest struct {
	Target  string `json:"target"`
	Message string `json:"message"`
}

type MessagesResponse struct {
	Messages []CubeMessage `json:"messages"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	WSTypeMessageStatus = "message_status"
)
