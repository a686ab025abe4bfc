package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeMatches(t *testing.T) {
	orders := Scope{Table: TableOrders}
	miffy := Scope{Table: TableOrders, CustomerName: "Miffy"}

	assert.True(t, orders.Matches(Change{Table: TableOrders, CustomerName: "Boris"}))
	assert.False(t, orders.Matches(Change{Table: TableDrinks}))

	assert.True(t, miffy.Matches(Change{Table: TableOrders, CustomerName: "Miffy"}))
	assert.False(t, miffy.Matches(Change{Table: TableOrders, CustomerName: "Boris"}))
	// bulk changes carry no customer and reach every filtered scope
	assert.True(t, miffy.Matches(Change{Table: TableOrders, Op: OpDelete}))
	assert.False(t, miffy.Matches(Change{Table: TableUsers}))
}

func TestHubPublish(t *testing.T) {
	hub := NewHub()
	var drinks, miffy []Change

	hub.Subscribe(Scope{Table: TableDrinks}, func(c Change) { drinks = append(drinks, c) })
	hub.Subscribe(Scope{Table: TableOrders, CustomerName: "Miffy"}, func(c Change) { miffy = append(miffy, c) })

	ctx := context.Background()
	require.NoError(t, hub.Publish(ctx, Change{Table: TableDrinks, Op: OpInsert, ID: "d1"}))
	require.NoError(t, hub.Publish(ctx, Change{Table: TableOrders, Op: OpInsert, CustomerName: "Boris"}))
	require.NoError(t, hub.Publish(ctx, Change{Table: TableOrders, Op: OpUpdate, CustomerName: "Miffy"}))

	assert.Len(t, drinks, 1)
	assert.Equal(t, "d1", drinks[0].ID)
	require.Len(t, miffy, 1)
	assert.Equal(t, OpUpdate, miffy[0].Op)
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	calls := 0
	sub := hub.Subscribe(Scope{Table: TableUsers}, func(Change) { calls++ })
	assert.Equal(t, 1, hub.Len())

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 0, hub.Len())

	require.NoError(t, hub.Publish(context.Background(), Change{Table: TableUsers}))
	assert.Zero(t, calls)
}

func TestDecodeChange(t *testing.T) {
	c, err := DecodeChange([]byte(`{"table":"orders","op":"update","id":"o1","customer_name":"Miffy"}`))
	require.NoError(t, err)
	assert.Equal(t, Change{Table: TableOrders, Op: OpUpdate, ID: "o1", CustomerName: "Miffy"}, c)

	_, err = DecodeChange([]byte(`{"op":"update"}`))
	assert.Error(t, err)

	_, err = DecodeChange([]byte(`not json`))
	assert.Error(t, err)
}
