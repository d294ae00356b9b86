package websocket

import "encoding/json"

const (
	cmdJoin        = "join"
	cmdSendMessage = "sendMessage"
	cmdMarkRead    = "markRead"
)

// frame is the envelope of every client command.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type JoinCommand struct {
	UserID string `json:"userId" validate:"required"`
}

type SendMessageCommand struct {
	From    string `json:"from" validate:"required"`
	To      string `json:"to" validate:"required"`
	Content string `json:"content" validate:"required,max=5000"`
}

type MarkReadCommand struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}
