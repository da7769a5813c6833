package socket

// Message is a command line sent to a running tuc instance.
type Message struct {
	Command string `json:"command"`
	Line    string `json:"line,omitempty"`

	// ResponseChan receives the reply of the instance. It never crosses
	// the socket.
	ResponseChan chan *Response `json:"-"`
}

// Response represents the response from the server
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Text is the document after the command, when the client asked
	// for it.
	Text string `json:"text,omitempty"`
}

// Command types
const (
	// CommandExecute runs Line as if typed on the command line.
	CommandExecute = "execute"
	// CommandText returns the document text.
	CommandText = "text"
)
