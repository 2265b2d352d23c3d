package app

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/bft-labs/posefeed/internal/adapters/udp"
	"github.com/bft-labs/posefeed/internal/domain"
	"github.com/bft-labs/posefeed/internal/protocol"
)

func newTestManager(t *testing.T, tr *fakeTransport, h Handler) *Manager {
	t.Helper()
	m, err := NewManager(ManagerConfig{ShutdownTimeout: time.Second}, tr, nil, h, mockLogger{})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	t.Cleanup(func() { _ = m.Dispose() })
	return m
}

func TestNewManager_RequiresTransport(t *testing.T) {
	if _, err := NewManager(ManagerConfig{}, nil, nil, nil, nil); err == nil {
		t.Error("NewManager(nil transport) succeeded")
	}
}

func TestManager_ReceivesSamples(t *testing.T) {
	tr := &fakeTransport{}
	h := &recordingHandler{}
	m := newTestManager(t, tr, h)

	if err := m.Initialize(context.Background(), "localhost", 3883); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !m.IsConnected() {
		t.Error("IsConnected() = false after Initialize")
	}
	if err := m.StartReceiving(); err != nil {
		t.Fatalf("StartReceiving() error = %v", err)
	}

	tr.last().frames <- protocol.NewEncoder().
		SenderDescription(1, "rigid1").
		Pose(0, pose(1, 0, 2)).
		Bytes()

	if !waitFor(time.Second, func() bool { return m.Pending() == 2 }) {
		t.Fatalf("Pending() = %d, want 2", m.Pending())
	}
	if _, ok := m.Latest("rigid1"); !ok {
		t.Fatal("sample never reached the latest-state slot")
	}

	if n := m.DrainOnce(); n != 2 {
		t.Errorf("DrainOnce() = %d, want 2 (connected + sample)", n)
	}
	connected, lost, samples := h.counts()
	if connected != 1 || lost != 0 || samples != 1 {
		t.Errorf("notifications = %d connected, %d lost, %d samples", connected, lost, samples)
	}

	if got := m.Entities(); len(got) != 1 || got[0] != "rigid1" {
		t.Errorf("Entities() = %v", got)
	}
	if s := m.Stats(); s.Samples != 1 {
		t.Errorf("Stats().Samples = %d, want 1", s.Samples)
	}
}

func TestManager_StartBeforeInitialize(t *testing.T) {
	m := newTestManager(t, &fakeTransport{}, nil)

	if err := m.StartReceiving(); !errors.Is(err, domain.ErrNotInitialized) {
		t.Errorf("StartReceiving() = %v, want ErrNotInitialized", err)
	}
}

func TestManager_StartTwice(t *testing.T) {
	m := newTestManager(t, &fakeTransport{}, nil)
	_ = m.Initialize(context.Background(), "localhost", 3883)

	if err := m.StartReceiving(); err != nil {
		t.Fatalf("StartReceiving() error = %v", err)
	}
	if err := m.StartReceiving(); !errors.Is(err, domain.ErrAlreadyRunning) {
		t.Errorf("second StartReceiving() = %v, want ErrAlreadyRunning", err)
	}
	if err := m.Initialize(context.Background(), "localhost", 3883); !errors.Is(err, domain.ErrAlreadyRunning) {
		t.Errorf("Initialize() while running = %v, want ErrAlreadyRunning", err)
	}
}

func TestManager_StopIsIdempotent(t *testing.T) {
	m := newTestManager(t, &fakeTransport{}, nil)

	if err := m.StopReceiving(); err != nil {
		t.Errorf("StopReceiving() before start = %v", err)
	}

	_ = m.Initialize(context.Background(), "localhost", 3883)
	_ = m.StartReceiving()

	for i := 0; i < 3; i++ {
		if err := m.StopReceiving(); err != nil {
			t.Errorf("StopReceiving() #%d = %v", i, err)
		}
	}
	if m.IsConnected() {
		t.Error("IsConnected() = true after stop")
	}
	if m.LoopState() != StateStopped {
		t.Errorf("LoopState() = %v, want Stopped", m.LoopState())
	}
}

func TestManager_RestartReopensTransport(t *testing.T) {
	tr := &fakeTransport{}
	h := &recordingHandler{}
	m := newTestManager(t, tr, h)
	_ = m.Initialize(context.Background(), "localhost", 3883)

	for i := 0; i < 2; i++ {
		if err := m.StartReceiving(); err != nil {
			t.Fatalf("StartReceiving() #%d error = %v", i, err)
		}
		conn := tr.last()
		if err := m.StopReceiving(); err != nil {
			t.Fatalf("StopReceiving() #%d error = %v", i, err)
		}
		if !conn.isClosed() {
			t.Errorf("run %d: connection not released after stop", i)
		}
	}

	if tr.opened() != 2 {
		t.Errorf("opened %d connections, want 2", tr.opened())
	}
	if s := m.Stats(); s.Runs != 2 || s.Faults != 0 {
		t.Errorf("Stats() runs=%d faults=%d, want 2, 0", s.Runs, s.Faults)
	}

	m.DrainOnce()
	connected, lost, _ := h.counts()
	if connected != 2 || lost != 0 {
		t.Errorf("notifications = %d connected, %d lost; want 2, 0", connected, lost)
	}
}

func TestManager_StopTimesOutOnStuckLoop(t *testing.T) {
	stuck := newFakeConn()
	stuck.ignoreClose = true
	tr := &fakeTransport{newConn: func() *fakeConn { return stuck }}

	m, err := NewManager(ManagerConfig{ShutdownTimeout: 50 * time.Millisecond}, tr, nil, nil, mockLogger{})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	_ = m.Initialize(context.Background(), "localhost", 3883)
	_ = m.StartReceiving()

	select {
	case <-stuck.entered:
	case <-time.After(time.Second):
		t.Fatal("receive loop never blocked in Receive")
	}

	start := time.Now()
	err = m.StopReceiving()
	elapsed := time.Since(start)

	if !errors.Is(err, domain.ErrShutdownTimeout) {
		t.Errorf("StopReceiving() = %v, want ErrShutdownTimeout", err)
	}
	if elapsed > time.Second {
		t.Errorf("StopReceiving() took %v, want bounded by the shutdown timeout", elapsed)
	}
	if m.LoopState() != StateStopped {
		t.Errorf("LoopState() = %v, want Stopped", m.LoopState())
	}

	close(stuck.release)
	_ = m.Dispose()
}

func TestManager_ConnectionLostOnce(t *testing.T) {
	tr := &fakeTransport{}
	h := &recordingHandler{}
	m := newTestManager(t, tr, h)
	_ = m.Initialize(context.Background(), "localhost", 3883)
	_ = m.StartReceiving()

	tr.last().errs <- &domain.SocketError{Op: "read", Port: 3883, Err: errors.New("connection refused")}

	if !waitFor(time.Second, func() bool { return m.LoopState() == StateStopped }) {
		t.Fatal("loop did not exit after socket error")
	}

	if !waitFor(time.Second, func() bool { return m.Stats().Faults == 1 }) {
		t.Errorf("Stats().Faults = %d, want 1", m.Stats().Faults)
	}

	state := m.State()
	if state.Status != domain.StatusFaulted {
		t.Errorf("State() = %v, want Faulted", state)
	}
	if m.IsConnected() {
		t.Error("IsConnected() = true after connection loss")
	}

	_ = m.StopReceiving()
	m.DrainOnce()

	_, lost, _ := h.counts()
	if lost != 1 {
		t.Fatalf("connection-lost delivered %d times, want 1", lost)
	}
	if h.lost[0] == "" {
		t.Error("connection-lost reason is empty")
	}
	if m.State().Status != domain.StatusFaulted {
		t.Errorf("StopReceiving() after a fault changed state to %v", m.State())
	}
}

func TestManager_DeliberateStopNoConnectionLost(t *testing.T) {
	tr := &fakeTransport{}
	h := &recordingHandler{}
	m := newTestManager(t, tr, h)
	_ = m.Initialize(context.Background(), "localhost", 3883)
	_ = m.StartReceiving()
	_ = m.StopReceiving()
	_ = m.Dispose()

	m.DrainOnce()
	if _, lost, _ := h.counts(); lost != 0 {
		t.Errorf("connection-lost delivered %d times on deliberate stop", lost)
	}
}

func TestManager_ResolveFailure(t *testing.T) {
	tr := &fakeTransport{resolveErr: domain.ErrResolution}
	m := newTestManager(t, tr, nil)

	err := m.Initialize(context.Background(), "no-such-host.invalid", 3883)
	if !errors.Is(err, domain.ErrResolution) {
		t.Fatalf("Initialize() = %v, want ErrResolution", err)
	}
	if m.IsConnected() {
		t.Error("IsConnected() = true after failed Initialize")
	}
	if m.State().Status != domain.StatusFaulted {
		t.Errorf("State() = %v, want Faulted", m.State())
	}
	if err := m.StartReceiving(); !errors.Is(err, domain.ErrNotInitialized) {
		t.Errorf("StartReceiving() = %v, want ErrNotInitialized", err)
	}
}

func TestManager_OpenFailure(t *testing.T) {
	sockErr := &domain.SocketError{Op: "connect", Port: 3883, Err: errors.New("permission denied")}
	m := newTestManager(t, &fakeTransport{openErr: sockErr}, nil)

	err := m.Initialize(context.Background(), "localhost", 3883)
	if !errors.Is(err, domain.ErrSocket) {
		t.Errorf("Initialize() = %v, want ErrSocket", err)
	}
}

func TestManager_InitializeStartsNewEpoch(t *testing.T) {
	tr := &fakeTransport{}
	m := newTestManager(t, tr, nil)
	_ = m.Initialize(context.Background(), "localhost", 3883)
	_ = m.StartReceiving()

	tr.last().frames <- protocol.NewEncoder().Pose(0, pose(1, 0, 10)).Bytes()
	waitFor(time.Second, func() bool { return len(m.Entities()) == 1 })
	_ = m.StopReceiving()

	first := tr.last()
	if err := m.Initialize(context.Background(), "localhost", 3884); err != nil {
		t.Fatalf("re-Initialize() error = %v", err)
	}
	if len(m.Entities()) != 0 {
		t.Errorf("Entities() = %v after re-Initialize, want none", m.Entities())
	}
	if !first.isClosed() {
		t.Error("previous connection not released")
	}
	if ep, ok := m.Endpoint(); !ok || ep.Port() != 3884 {
		t.Errorf("Endpoint() = %v, %v", ep, ok)
	}
}

func TestManager_Dispose(t *testing.T) {
	tr := &fakeTransport{}
	m := newTestManager(t, tr, nil)
	_ = m.Initialize(context.Background(), "localhost", 3883)
	_ = m.StartReceiving()

	if err := m.Dispose(); err != nil {
		t.Fatalf("Dispose() error = %v", err)
	}
	if !tr.last().isClosed() {
		t.Error("Dispose() did not release the connection")
	}
	if err := m.Dispose(); err != nil {
		t.Errorf("second Dispose() = %v", err)
	}
	if err := m.Initialize(context.Background(), "localhost", 3883); !errors.Is(err, domain.ErrDisposed) {
		t.Errorf("Initialize() after Dispose = %v, want ErrDisposed", err)
	}
	if err := m.StartReceiving(); !errors.Is(err, domain.ErrDisposed) {
		t.Errorf("StartReceiving() after Dispose = %v, want ErrDisposed", err)
	}
	if err := m.StopReceiving(); err != nil {
		t.Errorf("StopReceiving() after Dispose = %v", err)
	}
}

func TestManager_EntityFilter(t *testing.T) {
	tr := &fakeTransport{}
	m := newTestManager(t, tr, nil)
	m.SetEntityFilter("rigid2")
	_ = m.Initialize(context.Background(), "localhost", 3883)
	_ = m.StartReceiving()

	tr.last().frames <- protocol.NewEncoder().
		SenderDescription(1, "rigid1").
		SenderDescription(2, "rigid2").
		Pose(0, pose(1, 0, 1)).
		Pose(0, pose(2, 0, 1)).
		Bytes()

	waitFor(time.Second, func() bool { return m.Stats().Datagrams == 1 && len(m.Entities()) == 1 })

	if got := m.Entities(); len(got) != 1 || got[0] != "rigid2" {
		t.Errorf("Entities() = %v, want [rigid2]", got)
	}
	if m.EntityFilter() != "rigid2" {
		t.Errorf("EntityFilter() = %q", m.EntityFilter())
	}
}

func TestManager_LoopbackUDP(t *testing.T) {
	server, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP() error = %v", err)
	}
	defer server.Close()
	serverAddr := server.LocalAddr().(*net.UDPAddr)

	m, err := NewManager(ManagerConfig{}, udp.New(udp.WithReadTimeout(20*time.Millisecond)), nil, nil, mockLogger{})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	defer m.Dispose()

	if err := m.Initialize(context.Background(), "127.0.0.1", serverAddr.Port); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	client := m.LocalAddr().(*net.UDPAddr)
	if err := m.StartReceiving(); err != nil {
		t.Fatalf("StartReceiving() error = %v", err)
	}

	frame := protocol.NewEncoder().
		SenderDescription(1, "rigid1").
		Pose(0, pose(1, 0, 42.25)).
		Bytes()
	if _, err := server.WriteToUDP(frame, client); err != nil {
		t.Fatalf("WriteToUDP() error = %v", err)
	}

	var got domain.PoseSample
	if !waitFor(2*time.Second, func() bool {
		var ok bool
		got, ok = m.Latest("rigid1")
		return ok
	}) {
		t.Fatal("no sample received over loopback")
	}
	if got.Timestamp != 42.25 || got.Position != [3]float64{1, 2, 3} {
		t.Errorf("sample = %+v", got)
	}

	if err := m.StopReceiving(); err != nil {
		t.Errorf("StopReceiving() error = %v", err)
	}
	if err := m.StartReceiving(); err != nil {
		t.Fatalf("restart error = %v", err)
	}
	if err := m.StopReceiving(); err != nil {
		t.Errorf("second StopReceiving() error = %v", err)
	}
}
