package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mcoot/roomchat/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.User:
		o.printUser(v)
	case response.AuthResponse:
		o.printAuth(v)
	case response.Room:
		o.printRoom(v)
	case []response.RoomSummary:
		o.printRoomList(v)
	case response.Message:
		o.printMessage(v)
	case response.Session:
		o.printSession(v)
	case response.HealthResponse:
		o.printHealth(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printUser(u response.User) {
	fmt.Fprintf(o.w, "User: %s\n", u.Username)
	if u.IsAdmin {
		fmt.Fprintln(o.w, "Role: administrator")
	}
}

func (o *Output) printAuth(a response.AuthResponse) {
	o.printUser(response.User{Username: a.Username, IsAdmin: a.IsAdmin})
	fmt.Fprintf(o.w, "Token: %s\n", a.SessionToken)
}

func (o *Output) printRoom(r response.Room) {
	lock := ""
	if r.Protected {
		lock = " [protected]"
	}
	fmt.Fprintf(o.w, "Room: %s (%s)%s\n", r.Name, r.Code, lock)
	fmt.Fprintf(o.w, "Created by: %s\n", r.Creator)
	fmt.Fprintf(o.w, "Members (%d): %s\n", len(r.Members), strings.Join(r.Members, ", "))
	if len(r.Transcript) == 0 {
		return
	}
	fmt.Fprintln(o.w)
	for _, m := range r.Transcript {
		o.printMessage(m)
	}
}

func (o *Output) printRoomList(rooms []response.RoomSummary) {
	if len(rooms) == 0 {
		fmt.Fprintln(o.w, "No rooms")
		return
	}
	for _, r := range rooms {
		lock := ""
		if r.Protected {
			lock = " [protected]"
		}
		fmt.Fprintf(o.w, "%s  %-24s %d member(s)%s\n", r.Code, r.Name, r.MemberCount, lock)
	}
}

func (o *Output) printMessage(m response.Message) {
	fmt.Fprintln(o.w, formatMessage(m))
}

func (o *Output) printSession(s response.Session) {
	if s.ActiveRoom == "" {
		fmt.Fprintln(o.w, "No active room")
		return
	}
	fmt.Fprintf(o.w, "Active room: %s\n", s.ActiveRoom)
}

func (o *Output) printHealth(h response.HealthResponse) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Rooms: %d\n", h.Rooms)
}

// formatMessage renders a transcript line as "[HH:MM] author: body"
func formatMessage(m response.Message) string {
	stamp := m.Timestamp.Local().Format("15:04")
	if m.System {
		return fmt.Sprintf("[%s] * %s", stamp, m.Body)
	}
	return fmt.Sprintf("[%s] %s: %s", stamp, m.Author, m.Body)
}
