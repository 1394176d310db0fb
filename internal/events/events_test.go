package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	e, err := New(TypeBillCreated, "user-1", map[string]string{"name": "Rent"})
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, TypeBillCreated, e.Type)
	assert.Equal(t, "user-1", e.UserID)
	assert.False(t, e.OccurredAt.IsZero())
	assert.JSONEq(t, `{"name":"Rent"}`, string(e.Payload))

	other, err := New(TypeBillCreated, "user-1", nil)
	require.NoError(t, err)
	assert.NotEqual(t, e.ID, other.ID)
	assert.Nil(t, other.Payload)
}

func TestNew_UnencodablePayload(t *testing.T) {
	_, err := New(TypeBillCreated, "user-1", map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestEvent_WireShape(t *testing.T) {
	e, err := New(TypeBillsImported, "user-1", map[string]int{"successCount": 2})
	require.NoError(t, err)

	b, err := json.Marshal(e)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "bills.imported", m["type"])
	assert.Equal(t, "user-1", m["userId"])
	assert.Contains(t, m, "occurredAt")
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}
