package controllers

import (
	"context"
	"sync"
	"time"

	"go-drink-stand/helpers"
	"go-drink-stand/liveview"
	"go-drink-stand/models"
	"go-drink-stand/realtime"
)

// Sink receives every snapshot a page renders. It must not block.
type Sink func(models.Message)

type mountable interface {
	Mount(ctx context.Context) error
	Unmount()
}

// page mounts and unmounts a group of views together.
type page struct {
	views []mountable
}

func (p *page) mount(ctx context.Context) error {
	for i, v := range p.views {
		if err := v.Mount(ctx); err != nil {
			for _, mounted := range p.views[:i] {
				mounted.Unmount()
			}
			return err
		}
	}
	return nil
}

func (p *page) unmount() {
	for _, v := range p.views {
		v.Unmount()
	}
}

func newView[T any](ctl *Controller, name string, load func(context.Context) (T, error), send Sink, event string, scopes ...realtime.Scope) *liveview.View[T] {
	render := func(data T) {
		send(models.Message{Event: event, Payload: data})
	}
	onError := func(err error) {
		ctl.log.Error("live view reload failed", "view", name, "error", err)
		send(models.Message{Event: models.EventError, Payload: viewError{View: name, Error: err.Error() + ", " + retryPrompt}})
	}
	return liveview.New(name, ctl.feed, load, render, scopes...).
		OnError(onError).
		WithObserver(ctl.metrics)
}

type viewError struct {
	View  string `json:"view"`
	Error string `json:"error"`
}

var (
	drinksScope = realtime.Scope{Table: realtime.TableDrinks}
	ordersScope = realtime.Scope{Table: realtime.TableOrders}
	usersScope  = realtime.Scope{Table: realtime.TableUsers}
)

// OrderPage keeps the catalog and the approved names live for the order
// screen.
type OrderPage struct {
	page
}

func (ctl *Controller) NewOrderPage(send Sink) *OrderPage {
	return &OrderPage{page{views: []mountable{
		newView(ctl, "order.drinks", ctl.loadCatalog, send, models.EventDrinks, drinksScope),
		newView(ctl, "order.customers", ctl.loadApproved, send, models.EventCustomers, usersScope),
	}}}
}

func (p *OrderPage) Mount(ctx context.Context) error { return p.mount(ctx) }
func (p *OrderPage) Unmount()                        { p.unmount() }

// StatusPage follows one customer's orders. Only changes to that customer's
// rows, or to drinks, trigger a reload.
type StatusPage struct {
	page
	customer string
}

func (ctl *Controller) NewStatusPage(customer string, send Sink) *StatusPage {
	return &StatusPage{
		customer: customer,
		page: page{views: []mountable{
			newView(ctl, "status.orders", ctl.loadOrders(customerQuery(customer)), send, models.EventOrders,
				realtime.Scope{Table: realtime.TableOrders, CustomerName: customer}, drinksScope),
			newView(ctl, "status.customers", ctl.loadApproved, send, models.EventCustomers, usersScope),
		}},
	}
}

func (p *StatusPage) Customer() string                { return p.customer }
func (p *StatusPage) Mount(ctx context.Context) error { return p.mount(ctx) }
func (p *StatusPage) Unmount()                        { p.unmount() }

// AdminPage serves one admin session. It unmounts itself, tells the client
// and calls onEnd when that session is signed out or expires.
type AdminPage struct {
	page
	session helpers.Session
	auth    *helpers.AuthProvider
	send    Sink
	onEnd   func()
	now     func() time.Time

	mu          sync.Mutex
	ended       bool
	unsubscribe func()
}

type sessionEnded struct {
	Reason helpers.SessionEndReason `json:"reason"`
}

func (ctl *Controller) NewAdminPage(session helpers.Session, send Sink, onEnd func()) *AdminPage {
	if onEnd == nil {
		onEnd = func() {}
	}
	return &AdminPage{
		session: session,
		auth:    ctl.auth,
		send:    send,
		onEnd:   onEnd,
		now:     ctl.now,
		page: page{views: []mountable{
			newView(ctl, "admin.queue", ctl.loadOrders(queueQuery), send, models.EventQueue, ordersScope, drinksScope),
			newView(ctl, "admin.history", ctl.loadOrders(historyQuery), send, models.EventHistory, ordersScope, drinksScope),
			newView(ctl, "admin.drinks", ctl.loadAdminDrinks, send, models.EventDrinks, drinksScope),
			newView(ctl, "admin.users", ctl.loadUsers, send, models.EventUsers, usersScope),
		}},
	}
}

func (p *AdminPage) Session() helpers.Session {
	return p.session
}

func (p *AdminPage) Mount(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ended || p.session.Expired(p.now()) {
		return helpers.ErrSessionEnded
	}
	if p.unsubscribe != nil {
		return liveview.ErrMounted
	}
	p.unsubscribe = p.auth.OnSessionChange(func(ev helpers.SessionEvent) {
		if ev.Ended && ev.Session.ID == p.session.ID {
			p.end(ev.Reason)
		}
	})
	if err := p.mount(ctx); err != nil {
		p.unsubscribe()
		p.unsubscribe = nil
		return err
	}
	return nil
}

// Unmount stops the page without ending the session.
func (p *AdminPage) Unmount() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stop()
}

// Ended reports whether the page's session has ended.
func (p *AdminPage) Ended() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ended
}

func (p *AdminPage) end(reason helpers.SessionEndReason) {
	p.mu.Lock()
	if p.ended {
		p.mu.Unlock()
		return
	}
	p.ended = true
	p.stop()
	p.mu.Unlock()

	p.send(models.Message{Event: models.EventSessionEnded, Payload: sessionEnded{Reason: reason}})
	p.onEnd()
}

func (p *AdminPage) stop() {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
	p.unmount()
}
