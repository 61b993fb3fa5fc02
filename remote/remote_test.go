package remote

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/tutils/tdice/dice"
	"github.com/tutils/tdice/rng"
)

func seededContext() (*dice.Context, error) {
	dc, err := dice.New(rng.KindMD5)
	if err != nil {
		return nil, err
	}
	if err := dc.SeedValue(42); err != nil {
		dc.Close()
		return nil, err
	}
	return dc, nil
}

func reference(t *testing.T, n int) []rng.Roll {
	t.Helper()
	dc, err := seededContext()
	if err != nil {
		t.Fatal(err)
	}
	defer dc.Close()
	out := make([]rng.Roll, n)
	for i := range out {
		if out[i], err = dc.Roll(); err != nil {
			t.Fatal(err)
		}
	}
	return out
}

func startServer(t *testing.T, opts ...ServerOption) string {
	t.Helper()
	opts = append([]ServerOption{WithContextFactory(seededContext)}, opts...)
	s, err := NewServer(opts...)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/dice"
}

func newClient(t *testing.T, addr string) *Client {
	t.Helper()
	c := NewClient(WithConnectAddress(addr))
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRoll(t *testing.T) {
	want := reference(t, 3)
	c := newClient(t, startServer(t))
	for i, w := range want {
		r, err := c.Roll()
		if err != nil {
			t.Fatal(err)
		}
		if r != w {
			t.Errorf("roll %d = %v, want %v", i, r, w)
		}
	}
}

func TestFetchUsesBothDice(t *testing.T) {
	want := reference(t, 2)
	c := newClient(t, startServer(t))
	var got []int
	for i := 0; i < 4; i++ {
		d, err := c.Fetch()
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, d)
	}
	for i, d := range []int{want[0][0], want[0][1], want[1][0], want[1][1]} {
		if got[i] != d {
			t.Fatalf("dice = %v, want %v", got, want)
		}
	}
}

func TestConnectionsAreIndependent(t *testing.T) {
	want := reference(t, 1)[0]
	addr := startServer(t)
	for i := 0; i < 2; i++ {
		r, err := newClient(t, addr).Roll()
		if err != nil {
			t.Fatal(err)
		}
		if r != want {
			t.Errorf("client %d first roll = %v, want %v", i, r, want)
		}
	}
}

func TestReconnectAfterClose(t *testing.T) {
	want := reference(t, 1)[0]
	c := newClient(t, startServer(t))
	if _, err := c.Roll(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	r, err := c.Roll()
	if err != nil {
		t.Fatal(err)
	}
	if r != want {
		t.Errorf("roll on new connection = %v, want %v", r, want)
	}
}

func TestUnknownOp(t *testing.T) {
	conn, _, err := websocket.DefaultDialer.Dial(startServer(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"op":"shake"}`)); err != nil {
		t.Fatal(err)
	}
	var resp Response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Error, "unknown operation") {
		t.Errorf("response = %+v", resp)
	}
}

func TestContextFactoryError(t *testing.T) {
	addr := startServer(t, WithContextFactory(func() (*dice.Context, error) {
		return nil, errors.New("no generator")
	}))
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	var resp Response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error != "no generator" {
		t.Errorf("response = %+v", resp)
	}
}

func TestClientAsFetcher(t *testing.T) {
	want := reference(t, 1)[0]
	c := newClient(t, startServer(t))
	dc, err := dice.New(rng.KindRandomOrg, dice.WithFetcher(c))
	if err != nil {
		t.Fatal(err)
	}
	defer dc.Close()
	r, err := dc.Roll()
	if err != nil {
		t.Fatal(err)
	}
	if r != want {
		t.Errorf("roll = %v, want %v", r, want)
	}
}

func TestDialFailure(t *testing.T) {
	srv := httptest.NewServer(nil)
	addr := "ws" + strings.TrimPrefix(srv.URL, "http") + "/dice"
	srv.Close()
	if _, err := NewClient(WithConnectAddress(addr)).Fetch(); err == nil {
		t.Error("Fetch from closed server succeeded")
	}
}

func TestBadListenAddress(t *testing.T) {
	if _, err := NewServer(WithListenAddress("http://127.0.0.1:8080/dice")); err == nil {
		t.Error("NewServer accepted an http address")
	}
}
