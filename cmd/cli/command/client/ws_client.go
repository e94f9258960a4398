package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"coursehub/internal/microservices/http-api/models"
	"coursehub/internal/microservices/websocket"

	"github.com/fatih/color"
	gws "github.com/gorilla/websocket"
)

// WebSocketURL turns the API base URL into the /ws endpoint
func WebSocketURL(apiURL string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("invalid API URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

// JoinChatRoom joins room and relays stdin lines as messages until /quit.
// Lines starting with "/admin " are sent as admin messages, "/to <email> "
// sends a directed admin message.
func JoinChatRoom(apiURL, room, token string, in io.Reader) error {
	wsURL, err := WebSocketURL(apiURL)
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Add("Authorization", "Bearer "+token)

	fmt.Printf("\n🔌 Connecting to course room %s...\n", room)
	conn, _, err := gws.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer conn.Close()

	if err := writeEvent(conn, websocket.EventJoinRoom, websocket.JoinRoomPayload{Room: room}); err != nil {
		return err
	}
	fmt.Printf("✅ Connected! Type your messages (or /quit to exit)\n\n")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				if !gws.IsCloseError(err, gws.CloseNormalClosure) {
					color.Red("connection closed: %v", err)
				}
				return
			}
			if line := FormatEvent(frame); line != "" {
				fmt.Println(line)
			}
		}
	}()

	quit := make(chan struct{})
	go func() {
		defer close(quit)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			if text == "/quit" {
				return
			}
			event, payload := ParseInput(room, text)
			if err := writeEvent(conn, event, payload); err != nil {
				color.Red("write error: %v", err)
				return
			}
		}
	}()

	select {
	case <-interrupt:
	case <-quit:
	case <-done:
		return nil
	}

	fmt.Println("Closing connection...")
	return conn.WriteMessage(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseNormalClosure, ""))
}

// ParseInput maps a typed line to an outbound event
func ParseInput(room, text string) (string, websocket.SendMessagePayload) {
	payload := websocket.SendMessagePayload{Room: room, Body: text}

	switch {
	case strings.HasPrefix(text, "/admin "):
		payload.Body = strings.TrimSpace(strings.TrimPrefix(text, "/admin "))
		return websocket.EventAdminSendMessage, payload
	case strings.HasPrefix(text, "/to "):
		parts := strings.SplitN(strings.TrimPrefix(text, "/to "), " ", 2)
		payload.TargetEmail = parts[0]
		payload.Body = ""
		if len(parts) == 2 {
			payload.Body = strings.TrimSpace(parts[1])
		}
		return websocket.EventAdminSendMessage, payload
	}
	return websocket.EventSendMessage, payload
}

// FormatEvent renders one inbound frame for the terminal
func FormatEvent(frame []byte) string {
	env, err := websocket.Decode(frame)
	if err != nil {
		return color.HiBlackString("(unreadable frame)")
	}

	switch env.Event {
	case websocket.EventReceiveMessage:
		var msg models.ChatMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return ""
		}
		return FormatMessage(msg)
	case websocket.EventMessageDeleted:
		var p websocket.MessageDeletedPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return ""
		}
		return color.HiBlackString("message %s was deleted", p.MessageID)
	case websocket.EventError:
		var p websocket.ErrorPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return ""
		}
		return color.RedString("⚠ %s", p.Message)
	}
	return ""
}

// FormatMessage renders a chat message; admin and directed messages stand out
func FormatMessage(msg models.ChatMessage) string {
	who := msg.SenderName
	if who == "" {
		who = msg.SenderEmail
	}
	ts := msg.Timestamp.Local().Format("15:04")
	switch {
	case msg.IsDirected():
		return color.MagentaString("[%s] %s → %s: %s", ts, who, msg.TargetEmail, msg.Body)
	case msg.IsAdminMessage:
		return color.YellowString("[%s] 📣 %s: %s", ts, who, msg.Body)
	default:
		return color.CyanString("[%s] %s: %s", ts, who, msg.Body)
	}
}

func writeEvent(conn *gws.Conn, event string, data any) error {
	frame, err := websocket.Encode(event, data)
	if err != nil {
		return err
	}
	return conn.WriteMessage(gws.TextMessage, frame)
}
