package domain

const (
	EventReceiveMessage = "receiveMessage"
	EventMessageSent    = "messageSent"
	EventMessageRead    = "messageRead"
	EventError          = "error"
)

// Event is a server to client push frame.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

type ReadNotice struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Count int    `json:"count"`
}

type ErrorNotice struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}
