package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go-drink-stand/database"
	"go-drink-stand/helpers"
	"go-drink-stand/middleware"
	"go-drink-stand/models"
	"go-drink-stand/monitoring"
	"go-drink-stand/realtime"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const adminPassword = "matcha"

var base = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

// stepClock returns a later time on every call.
type stepClock struct {
	mu sync.Mutex
	n  int
}

func (c *stepClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return base.Add(time.Duration(c.n) * time.Second)
}

type harness struct {
	t       *testing.T
	ctl     *Controller
	store   database.Store
	hub     *realtime.Hub
	auth    *helpers.AuthProvider
	metrics *monitoring.Metrics
	router  *gin.Engine
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sqlStore, err := database.OpenSQL(database.DriverSQLite, filepath.Join(t.TempDir(), "stand.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlStore.Close(context.Background()) })

	hub := realtime.NewHub()
	hash, err := helpers.HashPassword(adminPassword)
	require.NoError(t, err)
	auth := helpers.NewAuthProvider("secret", hash, time.Hour)
	t.Cleanup(auth.Close)

	clock := &stepClock{}
	h := &harness{
		t:       t,
		store:   database.WithNotifications(sqlStore, hub, discardLogger()),
		hub:     hub,
		auth:    auth,
		metrics: monitoring.New(),
	}
	h.ctl = New(Options{
		Store:    h.store,
		Feed:     hub,
		Auth:     auth,
		Metrics:  h.metrics,
		Log:      discardLogger(),
		Flagship: "classic matcha latte",
		Priority: []string{"matcha", "hojicha"},
		Now:      clock.now,
	})
	h.router = h.newRouter()
	return h
}

func (h *harness) newRouter() *gin.Engine {
	r := gin.New()
	ctl := h.ctl
	r.GET("/drinks", ctl.GetDrinks())
	r.GET("/users/suggest", ctl.SuggestUsers())
	r.POST("/orders", ctl.CreateOrder())
	r.GET("/orders/status", ctl.GetCustomerOrders())
	r.POST("/admin/login", ctl.Login())

	admin := r.Group("/admin", middleware.Authentication(h.auth))
	admin.POST("/logout", ctl.Logout())
	admin.GET("/orders/queue", ctl.GetQueue())
	admin.GET("/orders", ctl.GetOrders())
	admin.PATCH("/orders/:order_id/status", ctl.UpdateOrderStatus())
	admin.DELETE("/orders", ctl.ClearOrders())
	admin.GET("/drinks", ctl.GetAdminDrinks())
	admin.POST("/drinks", ctl.CreateDrink())
	admin.PATCH("/drinks/:drink_id", ctl.UpdateDrink())
	admin.DELETE("/drinks/:drink_id", ctl.DeleteDrink())
	admin.POST("/drinks/:drink_id/toggle", ctl.ToggleDrink())
	admin.GET("/users", ctl.GetUsers())
	admin.POST("/users", ctl.CreateUser())
	admin.DELETE("/users/:user_id", ctl.DeleteUser())
	return r
}

func (h *harness) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("token", token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login() string {
	h.t.Helper()
	_, token, err := h.auth.SignIn(adminPassword)
	require.NoError(h.t, err)
	return token
}

func (h *harness) addDrink(name string, available bool) models.Drink {
	h.t.Helper()
	d := models.Drink{Name: name, IsAvailable: available, CreatedAt: base}
	require.NoError(h.t, h.store.InsertDrink(context.Background(), &d))
	return d
}

func (h *harness) addUsers(names ...string) {
	h.t.Helper()
	for _, name := range names {
		require.NoError(h.t, h.store.InsertUser(context.Background(), &models.User{Name: name}))
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// sink collects page messages for assertions. Views of one page load
// concurrently, so messages skipped while waiting for one event are kept
// for later calls.
type sink struct {
	ch      chan models.Message
	pending []models.Message
}

func newSink() *sink {
	return &sink{ch: make(chan models.Message, 128)}
}

func (s *sink) send(msg models.Message) {
	s.ch <- msg
}

// next returns the oldest message with the given event, waiting if none has
// arrived yet.
func (s *sink) next(t *testing.T, event string) models.Message {
	t.Helper()
	for i, msg := range s.pending {
		if msg.Event == event {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return msg
		}
	}
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-s.ch:
			if msg.Event == event {
				return msg
			}
			s.pending = append(s.pending, msg)
		case <-timeout:
			t.Fatalf("no %q message", event)
			return models.Message{}
		}
	}
}

// quiet asserts no new message with the given event arrives for a while.
func (s *sink) quiet(t *testing.T, event string) {
	t.Helper()
	timeout := time.After(100 * time.Millisecond)
	for {
		select {
		case msg := <-s.ch:
			if msg.Event == event {
				t.Fatalf("unexpected %q message: %+v", event, msg.Payload)
			}
			s.pending = append(s.pending, msg)
		case <-timeout:
			return
		}
	}
}
