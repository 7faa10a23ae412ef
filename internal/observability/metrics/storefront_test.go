package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitSession(t *testing.T) {
	rec := &Recorder{}
	EmitSession(rec, SessionEvent{Transition: "restore", Outcome: OutcomeRepaired, Err: errors.New("bad")})

	pts := rec.Find("session.transition")
	require.Len(t, pts, 1)
	assert.Equal(t, "restore", pts[0].Tags["transition"])
	assert.Equal(t, OutcomeRepaired, pts[0].Tags["outcome"])
	assert.Equal(t, "errors_errorstring", pts[0].Tags["error_class"])
}

func TestEmitOrderView(t *testing.T) {
	rec := &Recorder{}
	EmitOrderView(rec, OrderView{Outcome: OutcomeConfirmed, Duration: 20 * time.Millisecond})

	require.Len(t, rec.Find("order_view.resolved"), 1)
	timings := rec.Find("order_view.duration")
	require.Len(t, timings, 1)
	assert.InDelta(t, 20.0, timings[0].Value, 0.001)
}

func TestNilSinkIsIgnored(t *testing.T) {
	EmitSession(nil, SessionEvent{})
	EmitPersistError(nil, "set", nil)
	EmitOrderView(nil, OrderView{})
}
