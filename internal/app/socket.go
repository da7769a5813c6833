package app

import (
	"github.com/pstuifzand/tui-columns/internal/socket"
)

// socketMessages returns the remote command channel, or nil when there is
// no server so the event loop never selects it.
func (a *App) socketMessages() <-chan socket.Message {
	if a.socketServer == nil {
		return nil
	}
	return a.socketServer.Messages()
}

// handleSocketMessage runs a remote command on the event loop and replies
// with the message the status line shows.
func (a *App) handleSocketMessage(msg socket.Message) {
	response := &socket.Response{Success: true}
	switch msg.Command {
	case socket.CommandExecute:
		text, err := a.ws.Execute(a.ctx, msg.Line)
		if err != nil {
			a.SetError(err)
			response.Success, response.Message = false, err.Error()
			break
		}
		if text != "" {
			a.SetStatus(text)
		}
		response.Message = text
		a.quit = a.quit || a.ws.Quit()
	case socket.CommandText:
		response.Text = a.ws.Doc.String()
	}
	if msg.ResponseChan != nil {
		msg.ResponseChan <- response
	}
}
