package trace

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/rig.go/pkg/framework"
	"github.com/robotalks/rig.go/pkg/sim"
	"github.com/robotalks/rig.go/pkg/sim/physics"
)

func TestReportChanges(t *testing.T) {
	adc := sim.NewADC()
	gear := physics.NewLinearActuator("gear", adc, 0, 1000)
	throttle := physics.NewLinearActuator("throttle", adc, 4, 2000)
	var out bytes.Buffer
	a := NewAdapter(&out).Subscribe(gear, throttle)
	a.Prefix = "left/"

	l := fx.NewLoop().Add(gear, throttle, a)
	gear.In2.Set(true)
	now := time.Now()
	l.RunTick(context.TODO(), now)
	require.Zero(t, a.Written(), "no time elapsed")

	l.RunTick(context.TODO(), now.Add(10*time.Millisecond))
	require.Equal(t, 1, a.Written())
	require.Equal(t, `{"direction":1,"kind":"actuator","name":"left/gear","position":1020,"tick":2}`,
		strings.TrimSpace(out.String()))
	require.Equal(t, uint16(1020), adc.Value(0))
}

func TestHub(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := websocket.Dial(url, "", srv.URL)
	require.NoError(t, err)
	defer conn.Close()
	for i := 0; i < 100 && hub.Viewers() == 0; i++ {
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, 1, hub.Viewers())

	a := NewAdapter(hub)
	adc := sim.NewADC()
	gear := physics.NewLinearActuator("gear", adc, 0, 1000)
	a.Subscribe(gear)
	l := fx.NewLoop().Add(gear, a)
	gear.In1.Set(true)
	now := time.Now()
	l.RunTick(context.TODO(), now)
	l.RunTick(context.TODO(), now.Add(10*time.Millisecond))
	require.Equal(t, 1, a.Written())

	var msg string
	require.NoError(t, websocket.Message.Receive(conn, &msg))
	require.Equal(t, `{"direction":-1,"kind":"actuator","name":"gear","position":980,"tick":2}`, msg)

	n, err := hub.Write([]byte(`{"partial":`))
	require.NoError(t, err)
	require.Equal(t, 11, n)
	hub.Write([]byte("true}\n"))
	require.NoError(t, websocket.Message.Receive(conn, &msg))
	require.Equal(t, `{"partial":true}`, msg)
	require.Zero(t, hub.Dropped())
}
