package controllers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"go-drink-stand/middleware"
	"go-drink-stand/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origins are enforced by the CORS layer for the REST API; pages are
	// public except the admin socket, which needs a token
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsClient is one websocket connection. Pages push snapshots through push;
// the write pump owns all writes to the connection.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
	log  *slog.Logger
}

func newWSClient(conn *websocket.Conn, log *slog.Logger) *wsClient {
	return &wsClient{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
		log:  log,
	}
}

// push queues a message, dropping it if the client is not keeping up. A
// later snapshot of the same view supersedes it anyway.
func (cl *wsClient) push(msg models.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		cl.log.Error("encode websocket message", "event", msg.Event, "error", err)
		return
	}
	select {
	case <-cl.done:
	case cl.send <- data:
	default:
		cl.log.Warn("websocket buffer full, dropping message", "event", msg.Event)
	}
}

func (cl *wsClient) close() {
	cl.once.Do(func() { close(cl.done) })
}

// readPump discards client messages and returns when the connection drops.
func (cl *wsClient) readPump() {
	cl.conn.SetReadLimit(4096)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				cl.log.Debug("websocket closed", "error", err)
			}
			return
		}
	}
}

func (cl *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case data := <-cl.send:
			if err := cl.write(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := cl.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-cl.done:
			// flush what the page queued before it closed us
			for {
				select {
				case data := <-cl.send:
					if err := cl.write(websocket.TextMessage, data); err != nil {
						return
					}
				default:
					_ = cl.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}

func (cl *wsClient) write(messageType int, data []byte) error {
	_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return cl.conn.WriteMessage(messageType, data)
}

// serve runs a page over a websocket until either side ends it.
func (ctl *Controller) serve(client *wsClient, pg mountable) {
	go client.writePump()
	defer client.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := pg.Mount(ctx); err != nil {
		client.push(models.Message{Event: models.EventError, Payload: gin.H{"error": err.Error()}})
		return
	}
	defer pg.Unmount()

	go func() {
		<-client.done
		// unblock readPump when the server side ends the page
		_ = client.conn.SetReadDeadline(time.Now())
	}()
	client.readPump()
}

func (ctl *Controller) upgrade(c *gin.Context) (*wsClient, bool) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		ctl.log.Warn("websocket upgrade failed", "path", c.FullPath(), "error", err)
		return nil, false
	}
	return newWSClient(conn, ctl.log), true
}

// OrderSocket streams the order page: the catalog and approved names.
func (ctl *Controller) OrderSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		client, ok := ctl.upgrade(c)
		if !ok {
			return
		}
		ctl.serve(client, ctl.NewOrderPage(client.push))
	}
}

// StatusSocket streams one customer's orders.
func (ctl *Controller) StatusSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.Query("name"))
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "please enter your name", "field": "name", "kind": "validation"})
			return
		}
		customer, err := ctl.resolveCustomer(c.Request.Context(), name)
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		client, ok := ctl.upgrade(c)
		if !ok {
			return
		}
		ctl.serve(client, ctl.NewStatusPage(customer, client.push))
	}
}

// AdminSocket streams the admin page for the session that authenticated
// the request, and closes when that session ends.
func (ctl *Controller) AdminSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := middleware.CurrentSession(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token is required"})
			return
		}
		client, ok := ctl.upgrade(c)
		if !ok {
			return
		}
		ctl.serve(client, ctl.NewAdminPage(session, client.push, client.close))
	}
}
