package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-drink-stand/controllers"
	"go-drink-stand/database"
	"go-drink-stand/helpers"
	"go-drink-stand/models"
	"go-drink-stand/monitoring"
	"go-drink-stand/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminPassword = "hunter2"

type stand struct {
	t      *testing.T
	server *httptest.Server
	store  database.Store
	hub    *realtime.Hub
}

func newStand(t *testing.T) *stand {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	sqlStore, err := database.OpenSQL(database.DriverSQLite, filepath.Join(t.TempDir(), "stand.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlStore.Close(context.Background()) })

	hub := realtime.NewHub()
	store := database.WithNotifications(sqlStore, hub, log)
	hash, err := helpers.HashPassword(adminPassword)
	require.NoError(t, err)
	auth := helpers.NewAuthProvider("routes-secret", hash, time.Hour)
	t.Cleanup(auth.Close)

	metrics := monitoring.New()
	ctl := controllers.New(controllers.Options{
		Store:    store,
		Feed:     hub,
		Auth:     auth,
		Metrics:  metrics,
		Log:      log,
		Flagship: "classic matcha latte",
	})

	router := gin.New()
	Register(router, ctl, auth, metrics)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &stand{t: t, server: server, store: store, hub: hub}
}

func (s *stand) call(method, path string, body interface{}, token string, out interface{}) int {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *stand) login() string {
	s.t.Helper()
	var body struct {
		Token string `json:"token"`
	}
	require.Equal(s.t, http.StatusOK, s.call(http.MethodPost, "/admin/login", gin.H{"password": adminPassword}, "", &body))
	return body.Token
}

func (s *stand) dial(path string) *websocket.Conn {
	s.t.Helper()
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(s.t, err)
	resp.Body.Close()
	s.t.Cleanup(func() { conn.Close() })
	return conn
}

type frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// await reads frames until one with the given event arrives.
func await(t *testing.T, conn *websocket.Conn, event string) json.RawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f), "waiting for %q", event)
		if f.Event == event {
			return f.Payload
		}
	}
}

type orderRow struct {
	models.Order
	DrinkName   string `json:"drink_name"`
	StatusLabel string `json:"status_label"`
}

// awaitOrders waits for an orders snapshot that satisfies ok.
func awaitOrders(t *testing.T, conn *websocket.Conn, event string, ok func([]orderRow) bool) []orderRow {
	t.Helper()
	for {
		var rows []orderRow
		require.NoError(t, json.Unmarshal(await(t, conn, event), &rows))
		if ok(rows) {
			return rows
		}
	}
}

func TestOrderLifecycle(t *testing.T) {
	s := newStand(t)
	token := s.login()

	var matcha models.Drink
	require.Equal(t, http.StatusCreated, s.call(http.MethodPost, "/admin/drinks", gin.H{"name": "Classic Matcha Latte"}, token, &matcha))
	require.Equal(t, http.StatusCreated, s.call(http.MethodPost, "/admin/drinks", gin.H{"name": "Iced Latte"}, token, nil))
	require.Equal(t, http.StatusCreated, s.call(http.MethodPost, "/admin/users", gin.H{"name": "Miffy"}, token, nil))

	status := s.dial("/ws/status?name=miffy")
	var initial []orderRow
	require.NoError(t, json.Unmarshal(await(t, status, models.EventOrders), &initial))
	assert.Empty(t, initial)

	var order models.Order
	require.Equal(t, http.StatusCreated, s.call(http.MethodPost, "/orders",
		gin.H{"customer_name": "Miffy", "drink_id": matcha.ID, "size": "small"}, "", &order))
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Nil(t, order.StartedAt)
	assert.Nil(t, order.CompletedAt)

	awaitOrders(t, status, models.EventOrders, func(rows []orderRow) bool {
		return len(rows) == 1 && rows[0].Status == models.StatusPending
	})

	var started models.Order
	require.Equal(t, http.StatusOK, s.call(http.MethodPatch, "/admin/orders/"+order.ID+"/status", gin.H{"status": "in_progress"}, token, &started))
	assert.Equal(t, models.StatusInProgress, started.Status)
	require.NotNil(t, started.StartedAt)
	assert.Nil(t, started.CompletedAt)

	var completed models.Order
	require.Equal(t, http.StatusOK, s.call(http.MethodPatch, "/admin/orders/"+order.ID+"/status", gin.H{"status": "complete"}, token, &completed))
	assert.Equal(t, models.StatusComplete, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	rows := awaitOrders(t, status, models.EventOrders, func(rows []orderRow) bool {
		return len(rows) == 1 && rows[0].Status == models.StatusComplete
	})
	assert.Equal(t, "Complete", rows[0].StatusLabel)
	assert.Equal(t, "Classic Matcha Latte", rows[0].DrinkName)

	var lookup struct {
		CustomerName string     `json:"customer_name"`
		Orders       []orderRow `json:"orders"`
	}
	require.Equal(t, http.StatusOK, s.call(http.MethodGet, "/orders/status?name=Miffy", nil, "", &lookup))
	require.Len(t, lookup.Orders, 1)
	assert.Equal(t, order.ID, lookup.Orders[0].ID)
	assert.Equal(t, "Complete", lookup.Orders[0].StatusLabel)

	require.Equal(t, http.StatusNoContent, s.call(http.MethodDelete, "/admin/drinks/"+matcha.ID, nil, token, nil))
	rows = awaitOrders(t, status, models.EventOrders, func(rows []orderRow) bool {
		return len(rows) == 1 && rows[0].DrinkName == models.DeletedDrinkLabel
	})
	assert.Equal(t, order.ID, rows[0].ID)
}

func TestOrderSocketFollowsCatalog(t *testing.T) {
	s := newStand(t)
	token := s.login()

	conn := s.dial("/ws/order")
	var drinks []models.Drink
	require.NoError(t, json.Unmarshal(await(t, conn, models.EventDrinks), &drinks))
	assert.Empty(t, drinks)

	require.Equal(t, http.StatusCreated, s.call(http.MethodPost, "/admin/drinks", gin.H{"name": "Hojicha", "is_available": false}, token, nil))
	require.NoError(t, json.Unmarshal(await(t, conn, models.EventDrinks), &drinks))
	require.Len(t, drinks, 1)
	assert.False(t, drinks[0].IsAvailable)
}

func TestAdminSocketClosesOnLogout(t *testing.T) {
	s := newStand(t)
	token := s.login()

	conn := s.dial("/admin/ws?token=" + token)
	await(t, conn, models.EventQueue)

	require.Equal(t, http.StatusOK, s.call(http.MethodPost, "/admin/logout", nil, token, nil))

	var ended struct {
		Reason string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(await(t, conn, models.EventSessionEnded), &ended))
	assert.Equal(t, string(helpers.SessionSignedOut), ended.Reason)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
			break
		}
	}

	require.Eventually(t, func() bool { return s.hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, http.StatusUnauthorized, s.call(http.MethodGet, "/admin/orders", nil, token, nil))
}

func TestAdminSocketNeedsToken(t *testing.T) {
	s := newStand(t)
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/admin/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStatusSocketNeedsName(t *testing.T) {
	s := newStand(t)
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws/status"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOpsRoutes(t *testing.T) {
	s := newStand(t)

	var health map[string]string
	require.Equal(t, http.StatusOK, s.call(http.MethodGet, "/healthz", nil, "", &health))
	assert.Equal(t, "ok", health["status"])

	resp, err := http.Get(s.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "drinkstand_orders_created_total")

	assert.Equal(t, http.StatusNotFound, s.call(http.MethodGet, "/nope", nil, "", nil))
}
