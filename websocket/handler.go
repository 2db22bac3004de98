package websocket

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Authenticator validates a raw bearer token and returns the user it belongs to.
type Authenticator func(token string) (primitive.ObjectID, error)

// HandleWebSocket upgrades the connection and runs the client's read loop.
// Clients connecting without a known user must authenticate with an
// "AUTH:<token>" message before they receive notifications.
func HandleWebSocket(c echo.Context, hub *Hub, userID primitive.ObjectID, authenticate Authenticator) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		UserID:        userID,
		Conn:          conn,
		Authenticated: userID != primitive.NilObjectID,
	}

	hub.register <- client

	if client.Authenticated {
		conn.WriteJSON(Notification{
			Type:    "connected",
			Message: "WebSocket connection established",
			UserID:  userID.Hex(),
		})
	} else {
		conn.WriteJSON(Notification{
			Type:         "connected",
			Message:      "WebSocket connection established. Please authenticate to receive notifications.",
			RequiresAuth: true,
		})
	}

	go func() {
		defer func() {
			hub.unregister <- client
		}()

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				break
			}

			if messageType != websocket.TextMessage {
				continue
			}

			messageStr := string(message)
			if !strings.HasPrefix(messageStr, "AUTH:") {
				continue
			}
			if client.Authenticated {
				continue
			}

			token := strings.TrimPrefix(messageStr, "AUTH:")
			authID, err := authenticate(token)
			if err != nil {
				conn.WriteJSON(Notification{
					Type:         "auth_response",
					Message:      "Authentication failed",
					RequiresAuth: true,
				})
				continue
			}

			hub.AuthenticateClient(client, authID)
			conn.WriteJSON(Notification{
				Type:    "auth_response",
				Message: "Authenticated",
				UserID:  authID.Hex(),
			})
		}
	}()

	return nil
}
