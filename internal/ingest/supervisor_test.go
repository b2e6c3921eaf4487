package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

type fakeConn struct {
	mu     sync.Mutex
	writes []any
	closed bool
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) replies() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.writes...)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func newTestSupervisor(devices *memDeviceRepo, store *memReadingStore) *Supervisor {
	return NewSupervisor(NewHandshake(devices), NewIngestor(store), nil, nil)
}

func TestOnFrame_AuthAuthorized(t *testing.T) {
	sv := newTestSupervisor(newMemDeviceRepo(), &memReadingStore{})
	conn := &fakeConn{}
	h := sv.OnConnect(conn)

	sv.OnFrame(context.Background(), h, []byte(`{"type":"auth","device_token":"T1"}`))

	got := conn.replies()
	if len(got) != 1 {
		t.Fatalf("replies = %v, want 1", got)
	}
	reply, ok := got[0].(authReply)
	if !ok {
		t.Fatalf("reply type %T", got[0])
	}
	if reply.Status != statusAuthorized || reply.DeviceID != 7 {
		t.Errorf("reply = %+v, want Authorized deviceId 7", reply)
	}
	if conn.isClosed() {
		t.Error("connection must stay open after successful auth")
	}
}

func TestOnFrame_AuthRejectedClosesConnection(t *testing.T) {
	sv := newTestSupervisor(newMemDeviceRepo(), &memReadingStore{})
	conn := &fakeConn{}
	h := sv.OnConnect(conn)

	sv.OnFrame(context.Background(), h, []byte(`{"type":"auth","device_token":"BAD"}`))

	got := conn.replies()
	if len(got) != 1 {
		t.Fatalf("replies = %v, want 1", got)
	}
	reply := got[0].(authReply)
	if reply.Status != statusUnauthorized {
		t.Errorf("status = %q, want Unauthorized", reply.Status)
	}
	if reply.DeviceID != 0 {
		t.Errorf("rejection must not carry a device id, got %d", reply.DeviceID)
	}
	if !conn.isClosed() {
		t.Error("connection must be closed after rejection")
	}
}

func TestOnFrame_AuthStoreOutageClosesWithoutDetermination(t *testing.T) {
	devices := newMemDeviceRepo()
	devices.err = errors.New("dial tcp: connection refused")
	sv := newTestSupervisor(devices, &memReadingStore{})
	conn := &fakeConn{}
	h := sv.OnConnect(conn)

	sv.OnFrame(context.Background(), h, []byte(`{"type":"auth","device_token":"T1"}`))

	if got := conn.replies(); len(got) != 0 {
		t.Errorf("replies = %v, want none (outage must not leak as a status)", got)
	}
	if !conn.isClosed() {
		t.Error("connection must be closed on credential store outage")
	}
}

func TestOnFrame_UnauthenticatedReadingDroppedSilently(t *testing.T) {
	store := &memReadingStore{}
	sv := newTestSupervisor(newMemDeviceRepo(), store)
	conn := &fakeConn{}
	h := sv.OnConnect(conn)

	sv.OnFrame(context.Background(), h, []byte(`{"type":"sensor_reading","temperature":20}`))

	if got := conn.replies(); len(got) != 0 {
		t.Errorf("replies = %v, want none", got)
	}
	if len(store.stored()) != 0 {
		t.Error("no record must be stored before auth")
	}
	if conn.isClosed() {
		t.Error("connection must stay open")
	}
}

func TestOnFrame_AuthenticatedReadingStored(t *testing.T) {
	store := &memReadingStore{}
	sv := newTestSupervisor(newMemDeviceRepo(), store)
	conn := &fakeConn{}
	h := sv.OnConnect(conn)

	sv.OnFrame(context.Background(), h, []byte(`{"type":"auth","device_token":"T1"}`))
	sv.OnFrame(context.Background(), h, []byte(
		`{"type":"sensor_reading","temperature":21.5,"humidity":null,"light_level":null,"soil_moisture":null,"co2_ppm":null,"rain_analog":null}`))

	got := store.stored()
	if len(got) != 1 {
		t.Fatalf("stored %d readings, want 1", len(got))
	}
	rd := got[0]
	if rd.DeviceID != 7 {
		t.Errorf("DeviceID = %d, want 7", rd.DeviceID)
	}
	if rd.Temperature == nil || *rd.Temperature != 21.5 {
		t.Errorf("Temperature = %v, want 21.5", rd.Temperature)
	}
	if rd.Humidity != nil {
		t.Errorf("Humidity = %v, want nil", *rd.Humidity)
	}
	// Success sends no reply beyond the auth acknowledgement.
	if replies := conn.replies(); len(replies) != 1 {
		t.Errorf("replies = %v, want only the auth reply", replies)
	}
}

func TestOnFrame_MalformedFrameKeepsConnectionUsable(t *testing.T) {
	store := &memReadingStore{}
	sv := newTestSupervisor(newMemDeviceRepo(), store)
	conn := &fakeConn{}
	h := sv.OnConnect(conn)

	sv.OnFrame(context.Background(), h, []byte("not json at all"))

	got := conn.replies()
	if len(got) != 1 {
		t.Fatalf("replies = %v, want 1", got)
	}
	reply, ok := got[0].(errorReply)
	if !ok {
		t.Fatalf("reply type %T", got[0])
	}
	if reply.Error != invalidJSONMessage {
		t.Errorf("error = %q, want %q", reply.Error, invalidJSONMessage)
	}
	if conn.isClosed() {
		t.Fatal("connection must stay open after a malformed frame")
	}

	// A subsequent valid frame on the same connection still works.
	sv.OnFrame(context.Background(), h, []byte(`{"type":"auth","device_token":"T1"}`))
	if !h.session.Authenticated() {
		t.Error("auth after malformed frame should succeed")
	}
}

func TestOnFrame_SecondAuthDoesNotRebind(t *testing.T) {
	devices := newMemDeviceRepo()
	sv := newTestSupervisor(devices, &memReadingStore{})
	conn := &fakeConn{}
	h := sv.OnConnect(conn)

	sv.OnFrame(context.Background(), h, []byte(`{"type":"auth","device_token":"T1"}`))
	sv.OnFrame(context.Background(), h, []byte(`{"type":"auth","device_token":"FORGED"}`))

	if h.DeviceID() != 7 {
		t.Errorf("DeviceID = %d, want 7", h.DeviceID())
	}
	// The repeated handshake is acknowledged with the existing identity.
	got := conn.replies()
	if len(got) != 2 {
		t.Fatalf("replies = %v, want 2", got)
	}
	second := got[1].(authReply)
	if second.Status != statusAuthorized || second.DeviceID != 7 {
		t.Errorf("second reply = %+v, want Authorized deviceId 7", second)
	}
	if conn.isClosed() {
		t.Error("connection must stay open")
	}
}

func TestOnFrame_ReadingStoreFailureKeepsConnection(t *testing.T) {
	store := &memReadingStore{}
	sv := newTestSupervisor(newMemDeviceRepo(), store)
	conn := &fakeConn{}
	h := sv.OnConnect(conn)

	sv.OnFrame(context.Background(), h, []byte(`{"type":"auth","device_token":"T1"}`))
	store.mu.Lock()
	store.err = errors.New("too many connections")
	store.mu.Unlock()

	sv.OnFrame(context.Background(), h, []byte(`{"type":"sensor_reading","temperature":20}`))

	if conn.isClosed() {
		t.Error("a transient store failure must not disconnect the device")
	}
	if replies := conn.replies(); len(replies) != 1 {
		t.Errorf("replies = %v, want only the auth reply", replies)
	}
}

func TestOnFrame_UnrecognizedTypeIgnored(t *testing.T) {
	sv := newTestSupervisor(newMemDeviceRepo(), &memReadingStore{})
	conn := &fakeConn{}
	h := sv.OnConnect(conn)

	sv.OnFrame(context.Background(), h, []byte(`{"type":"ota_status","ok":true}`))

	if got := conn.replies(); len(got) != 0 {
		t.Errorf("replies = %v, want none", got)
	}
	if conn.isClosed() {
		t.Error("connection must stay open")
	}
}

func TestOnDisconnect_Idempotent(t *testing.T) {
	sv := newTestSupervisor(newMemDeviceRepo(), &memReadingStore{})
	h := sv.OnConnect(&fakeConn{})
	if sv.SessionCount() != 1 {
		t.Fatalf("SessionCount = %d, want 1", sv.SessionCount())
	}

	sv.OnDisconnect(h)
	if sv.SessionCount() != 0 {
		t.Errorf("SessionCount = %d, want 0", sv.SessionCount())
	}

	// Repeated and unknown handles are no-ops.
	sv.OnDisconnect(h)
	sv.OnDisconnect(nil)
	sv.OnDisconnect(&SessionHandle{session: NewSession(), conn: &fakeConn{}})
	if sv.SessionCount() != 0 {
		t.Errorf("SessionCount = %d, want 0", sv.SessionCount())
	}
}

func TestSupervisor_ConcurrentConnections(t *testing.T) {
	store := &memReadingStore{}
	sv := newTestSupervisor(newMemDeviceRepo(), store)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := &fakeConn{}
			h := sv.OnConnect(conn)
			sv.OnFrame(context.Background(), h, []byte(`{"type":"auth","device_token":"T1"}`))
			sv.OnFrame(context.Background(), h, []byte(`{"type":"sensor_reading","temperature":18}`))
			sv.OnDisconnect(h)
		}()
	}
	wg.Wait()

	if sv.SessionCount() != 0 {
		t.Errorf("SessionCount = %d, want 0 after all disconnects", sv.SessionCount())
	}
	if n := len(store.stored()); n != 16 {
		t.Errorf("stored %d readings, want 16", n)
	}
}

func TestAuthReply_WireShape(t *testing.T) {
	ok, err := json.Marshal(authReply{Status: statusAuthorized, DeviceID: 7})
	if err != nil {
		t.Fatal(err)
	}
	if string(ok) != `{"status":"Authorized","deviceId":7}` {
		t.Errorf("authorized payload = %s", ok)
	}

	rej, err := json.Marshal(authReply{Status: statusUnauthorized})
	if err != nil {
		t.Fatal(err)
	}
	if string(rej) != `{"status":"Unauthorized"}` {
		t.Errorf("unauthorized payload = %s", rej)
	}
}
