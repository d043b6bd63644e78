package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/roomchat/internal/api/request"
	"github.com/mcoot/roomchat/internal/api/response"
	"github.com/mcoot/roomchat/internal/model"
)

func newChatCmd() *cobra.Command {
	var password string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "chat <code>",
		Short: "Join a room and chat interactively",
		Long: `Open a WebSocket connection, join the room and relay lines from stdin as
messages. Incoming messages are printed as they arrive.

Commands:
  /leave  leave the room and exit
  /quit   disconnect without leaving (the room keeps your membership)

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := NewOutput(cfg.Output)
			if jsonOutput {
				out.format = "json"
			}
			return runChat(ctx, args[0], password, os.Stdin, out)
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Room password, if the room is protected")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print raw frames as JSON lines")

	return cmd
}

// Reader sentinels that end a chat session cleanly
var (
	errRoomGone = errors.New("room deleted")
	errLeft     = errors.New("left room")
)

func runChat(ctx context.Context, code, password string, in io.Reader, out *Output) error {
	header := http.Header{}
	if cfg.Token != "" {
		header.Set("Authorization", "Bearer "+cfg.Token)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, cfg.WebSocketURL(), header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connection refused: HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := writeFrame(conn, model.EventJoin, request.JoinPayload{Code: code, Password: password}); err != nil {
		return err
	}

	// Reader goroutine; all writes stay on this goroutine
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			if err := renderFrame(out, data); err != nil {
				readErr <- err
				return
			}
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			closeChat(conn)
			return nil
		case err := <-readErr:
			if errors.Is(err, errRoomGone) || errors.Is(err, errLeft) ||
				websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				closeChat(conn)
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		case line, ok := <-lines:
			if !ok {
				closeChat(conn)
				return nil
			}
			switch strings.TrimSpace(line) {
			case "":
				continue
			case "/quit":
				closeChat(conn)
				return nil
			case "/leave":
				if err := writeFrame(conn, model.EventLeave, nil); err != nil {
					return err
				}
				// Wait for the leave status before closing
				select {
				case <-readErr:
				case <-time.After(2 * time.Second):
				}
				closeChat(conn)
				return nil
			}
			if err := writeFrame(conn, model.EventSend, request.SendPayload{Body: line}); err != nil {
				return err
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, typ model.EventType, payload any) error {
	frame := request.Frame{Type: typ}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		frame.Payload = raw
	}
	if err := conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

func closeChat(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

func isLeaveStatus(raw json.RawMessage) bool {
	var p response.StatusPayload
	return json.Unmarshal(raw, &p) == nil && p.OK && p.Action == model.EventLeave
}

// renderFrame prints one server frame. It returns errRoomGone after a
// room_deleted frame and errLeft once a leave is confirmed.
func renderFrame(out *Output, data []byte) error {
	var evt response.Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return fmt.Errorf("malformed frame: %w", err)
	}

	if out.format == "json" {
		fmt.Fprintln(out.w, string(data))
		switch {
		case evt.Type == model.EventRoomDeleted:
			return errRoomGone
		case evt.Type == model.EventStatus && isLeaveStatus(evt.Payload):
			return errLeft
		}
		return nil
	}

	switch evt.Type {
	case model.EventNewMessage:
		var p response.NewMessagePayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return fmt.Errorf("malformed message: %w", err)
		}
		fmt.Fprintln(out.w, formatMessage(p.Message))
	case model.EventStatus:
		var p response.StatusPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return fmt.Errorf("malformed status: %w", err)
		}
		switch {
		case !p.OK:
			fmt.Fprintf(out.w, "! %s failed: %s (%s)\n", p.Action, p.Message, p.Code)
		case p.Action == model.EventJoin && p.Room != nil:
			out.printRoom(*p.Room)
			fmt.Fprintln(out.w, "---")
		case p.Action == model.EventLeave:
			fmt.Fprintf(out.w, "Left room %s\n", evt.Room)
			return errLeft
		}
	case model.EventRoomDeleted:
		var p response.RoomDeletedPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return fmt.Errorf("malformed notice: %w", err)
		}
		fmt.Fprintf(out.w, "Room %s was deleted by %s\n", p.Code, p.By)
		return errRoomGone
	}
	return nil
}
