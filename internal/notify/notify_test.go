package notify

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/volscan/internal/contracts"
	"github.com/wonny/volscan/pkg/logger"
)

type recorder struct {
	events []contracts.Event
}

func (r *recorder) Notify(e contracts.Event) {
	r.events = append(r.events, e)
}

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Multi{a, nil, b}.Notify(contracts.Event{Type: contracts.EventRescheduled})

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestToggle(t *testing.T) {
	rec := &recorder{}
	toggle := NewToggle(rec, false)

	toggle.Notify(contracts.Event{Type: contracts.EventChannelCompleted})
	assert.Empty(t, rec.events)

	assert.True(t, toggle.Flip())
	toggle.Notify(contracts.Event{Type: contracts.EventChannelCompleted})
	assert.Len(t, rec.events, 1)

	assert.False(t, toggle.Set(false))
	assert.False(t, toggle.Enabled())
}

func TestBell(t *testing.T) {
	var buf bytes.Buffer
	bell := NewBell(&buf)

	bell.Notify(contracts.Event{Type: contracts.EventRescheduled})
	assert.Empty(t, buf.String())

	bell.Notify(contracts.Event{Type: contracts.EventChannelCompleted, Column: 3})
	assert.Equal(t, "\a", buf.String())
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	NewLog(logger.NewWithWriter(&buf)).Notify(contracts.Event{
		Type:    contracts.EventChannelFailed,
		Column:  4,
		Message: "feed unavailable",
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "channel_failed", entry["event"])
	assert.Equal(t, float64(4), entry["column"])
	assert.Equal(t, "feed unavailable", entry["message"])
}

func TestNop(t *testing.T) {
	var n contracts.Notifier = Nop{}
	assert.NotPanics(t, func() { n.Notify(contracts.Event{}) })
}
