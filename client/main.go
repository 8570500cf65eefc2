package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeCreateRoom     = 101
	MsgTypeJoinRoom       = 102
	MsgTypeLeaveRoom      = 103
	MsgTypeReconnect      = 104
	MsgTypeRoomList       = 105
	MsgTypeSetWager       = 201
	MsgTypeResetWager     = 202
	MsgTypeConfirmWager   = 203
	MsgTypeUnconfirmWager = 204
	MsgTypeStartRoll      = 205
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func sendJSON(c *websocket.Conn, msgID uint16, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return send(c, msgID, data)
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]
			log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
		}
	}()

	log.Println("Commands: create <name> | join <room> <name> | list | bet <symbol> <amount> | reset | confirm | unconfirm | roll | leave | reconnect <player_id>")

	// Write loop
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			fields := strings.Fields(strings.TrimSpace(text))
			if len(fields) == 0 {
				continue
			}

			var err error
			switch fields[0] {
			case "create":
				name := "Host"
				if len(fields) > 1 {
					name = fields[1]
				}
				err = sendJSON(c, MsgTypeCreateRoom, map[string]interface{}{"host_name": name})
			case "join":
				if len(fields) < 3 {
					log.Println("Usage: join <room> <name>")
					continue
				}
				err = sendJSON(c, MsgTypeJoinRoom, map[string]interface{}{
					"room_id":     fields[1],
					"player_name": fields[2],
				})
			case "list":
				err = send(c, MsgTypeRoomList, []byte{})
			case "bet":
				if len(fields) < 3 {
					log.Println("Usage: bet <symbol> <amount>")
					continue
				}
				amount, parseErr := strconv.ParseInt(fields[2], 10, 64)
				if parseErr != nil {
					log.Println("Invalid amount:", fields[2])
					continue
				}
				err = sendJSON(c, MsgTypeSetWager, map[string]interface{}{
					"symbol": fields[1],
					"amount": amount,
				})
			case "reset":
				err = send(c, MsgTypeResetWager, []byte{})
			case "confirm":
				err = send(c, MsgTypeConfirmWager, []byte{})
			case "unconfirm":
				err = send(c, MsgTypeUnconfirmWager, []byte{})
			case "roll":
				err = send(c, MsgTypeStartRoll, []byte{})
			case "leave":
				err = send(c, MsgTypeLeaveRoom, []byte{})
			case "reconnect":
				if len(fields) < 2 {
					log.Println("Usage: reconnect <player_id>")
					continue
				}
				err = sendJSON(c, MsgTypeReconnect, map[string]interface{}{"player_id": fields[1]})
			default:
				log.Println("Unknown command:", fields[0])
				continue
			}

			if err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> SENT: %s", fields[0])
		}
	}
}
