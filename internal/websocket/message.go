package websocket

import (
	"encoding/json"

	"github.com/paalso/microblog-go/internal/models"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewPostMessage builds the wire message announcing a freshly created post.
func NewPostMessage(post models.Post) []byte {
	data, _ := json.Marshal(Message{Action: "new_post", Payload: post})
	return data
}

// NewErrorMessage builds an error message for a client.
func NewErrorMessage(text string) []byte {
	data, _ := json.Marshal(Message{Action: "error", Payload: text})
	return data
}
