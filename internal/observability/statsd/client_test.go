package statsd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTags(t *testing.T) {
	t.Parallel()

	global := map[string]string{"env": "prod", " service ": " storefront "}
	local := map[string]string{"outcome": " ok ", "": "ignored", "env": "stage"}

	assert.Equal(t, "|#env:stage,outcome:ok,service:storefront", formatTags(global, local))
	assert.Empty(t, formatTags(nil, nil))
}

func TestClient_DisabledWritesNothing(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{Enabled: false, Address: "127.0.0.1:1"})
	require.NoError(t, err)
	c.Count("session.login", 1, nil)
	require.NoError(t, c.Close())
}

func TestClient_EmitsLines(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })

	c, err := NewClient(Config{
		Enabled:    true,
		Address:    pc.LocalAddr().String(),
		Prefix:     ".storefront.",
		GlobalTags: map[string]string{"env": "test"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	c.Count("session.login", 1, map[string]string{"outcome": "ok"})
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 512)
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "storefront.session.login:1|c|#env:test,outcome:ok", string(buf[:n]))

	c.Timing("order.fetch", 1500*time.Microsecond, nil)
	n, _, err = pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "storefront.order.fetch:1.5|ms|#env:test", string(buf[:n]))
}

func TestNilClientIsSafe(t *testing.T) {
	t.Parallel()

	var c *Client
	c.Count("x", 1, nil)
	c.Timing("x", time.Second, nil)
	require.NoError(t, c.Close())
}
