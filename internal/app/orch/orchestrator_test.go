package orch

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/dkeye/DocRelay/internal/app"
	"github.com/dkeye/DocRelay/internal/core"
	"github.com/dkeye/DocRelay/internal/core/coretest"
	"github.com/dkeye/DocRelay/internal/core/mocks"
	"github.com/dkeye/DocRelay/internal/domain"
	"go.uber.org/mock/gomock"
)

type harness struct {
	t    *testing.T
	o    *Orchestrator
	recs map[core.SessionID]*coretest.Recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		t:    t,
		o:    New(app.NewRegistry(), core.NewRoomDirectory(), app.DropPolicy{}),
		recs: map[core.SessionID]*coretest.Recorder{},
	}
}

func (h *harness) connect(sid core.SessionID) *coretest.Recorder {
	rec := coretest.NewRecorder()
	h.recs[sid] = rec
	h.o.OnConnect(sid, rec, nil)
	return rec
}

func (h *harness) join(sid core.SessionID, room, user string) {
	h.t.Helper()
	if err := h.o.Join(sid, core.JoinRoom{Room: room, User: user}); err != nil {
		h.t.Fatalf("join %s: %v", sid, err)
	}
}

func (h *harness) resetAll() {
	for _, rec := range h.recs {
		rec.Reset()
	}
}

func lastRoster(t *testing.T, rec *coretest.Recorder) []string {
	t.Helper()
	updates := rec.OfType(t, core.EventUsersUpdate)
	if len(updates) == 0 {
		t.Fatal("no users-update received")
	}
	var roster []string
	if err := json.Unmarshal(updates[len(updates)-1], &roster); err != nil {
		t.Fatal(err)
	}
	return roster
}

// TestScenarioTwoEditors follows two participants through join, edit and leave.
func TestScenarioTwoEditors(t *testing.T) {
	h := newHarness(t)
	s1 := h.connect("s1")
	s2 := h.connect("s2")
	h.join("s1", "doc1", "alice")
	h.join("s2", "doc1", "bob")

	for _, rec := range []*coretest.Recorder{s1, s2} {
		if got := lastRoster(t, rec); !reflect.DeepEqual(got, []string{"alice", "bob"}) {
			t.Errorf("roster = %v", got)
		}
	}

	h.resetAll()
	err := h.o.ContentChange("s1", core.ContentIn{
		Room: "doc1",
		HTML: json.RawMessage(`"<p>hi</p>"`),
		User: json.RawMessage(`"alice"`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if n := len(s1.Envelopes(t)); n != 0 {
		t.Errorf("sender received %d frames", n)
	}
	changes := s2.OfType(t, core.EventContentChange)
	if len(changes) != 1 {
		t.Fatalf("s2 received %d content-change frames", len(changes))
	}
	var out struct {
		HTML string `json:"html"`
		User string `json:"user"`
	}
	if err := json.Unmarshal(changes[0], &out); err != nil {
		t.Fatal(err)
	}
	if out.HTML != "<p>hi</p>" || out.User != "alice" {
		t.Errorf("content-change = %+v", out)
	}

	h.resetAll()
	h.o.OnDisconnect("s2")
	if got := lastRoster(t, s1); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Errorf("roster after bob left = %v", got)
	}

	h.resetAll()
	h.o.OnDisconnect("s1")
	if h.o.Rooms.Len() != 0 {
		t.Errorf("room still listed: %v", h.o.Rooms.List())
	}
	if n := len(s1.Envelopes(t)); n != 0 {
		t.Errorf("broadcast sent for deleted room: %d frames", n)
	}
}

// TestHandshakeCorrelation checks the late joiner's id reaches every peer and
// every answer reaches the late joiner.
func TestHandshakeCorrelation(t *testing.T) {
	h := newHarness(t)
	a := h.connect("a")
	b := h.connect("b")
	n := h.connect("n")
	h.join("a", "doc1", "alice")
	h.join("b", "doc1", "bob")
	h.join("n", "doc1", "nina")
	h.resetAll()

	if err := h.o.RequestContent("n", core.ContentRequestIn{Room: "doc1", User: json.RawMessage(`"nina"`)}); err != nil {
		t.Fatal(err)
	}
	if got := n.OfType(t, core.EventRequestCurrentContent); len(got) != 0 {
		t.Error("requester heard its own request")
	}
	for _, rec := range []*coretest.Recorder{a, b} {
		reqs := rec.OfType(t, core.EventRequestCurrentContent)
		if len(reqs) != 1 {
			t.Fatalf("peer received %d requests", len(reqs))
		}
		var req core.ContentRequestOut
		if err := json.Unmarshal(reqs[0], &req); err != nil {
			t.Fatal(err)
		}
		if req.RequesterID != "n" || string(req.User) != `"nina"` {
			t.Errorf("request = %+v", req)
		}
	}

	// Both peers answer; the requester gets both.
	for _, sid := range []core.SessionID{"a", "b"} {
		err := h.o.SendContent(sid, core.ContentIn{Room: "doc1", HTML: json.RawMessage(`"<p>doc</p>"`), User: json.RawMessage(`"` + string(sid) + `"`)})
		if err != nil {
			t.Fatal(err)
		}
	}
	if got := n.OfType(t, core.EventReceiveCurrentContent); len(got) != 2 {
		t.Errorf("requester received %d answers, want 2", len(got))
	}
	if got := a.OfType(t, core.EventReceiveCurrentContent); len(got) != 1 {
		t.Errorf("a received %d answers, want only b's", len(got))
	}
}

func TestRequestContentWithNoPeers(t *testing.T) {
	h := newHarness(t)
	n := h.connect("n")
	h.join("n", "doc1", "nina")
	h.resetAll()

	if err := h.o.RequestContent("n", core.ContentRequestIn{Room: "doc1"}); err != nil {
		t.Fatal(err)
	}
	if got := len(n.Envelopes(t)); got != 0 {
		t.Errorf("lone requester received %d frames", got)
	}
}

// TestRoomIsolation checks events never cross rooms.
func TestRoomIsolation(t *testing.T) {
	h := newHarness(t)
	h.connect("a")
	other := h.connect("b")
	h.join("a", "doc1", "alice")
	h.join("b", "doc2", "bob")
	other.Reset()

	_ = h.o.ContentChange("a", core.ContentIn{Room: "doc1", HTML: json.RawMessage(`"x"`)})
	_ = h.o.RequestContent("a", core.ContentRequestIn{Room: "doc1"})
	_ = h.o.SendContent("a", core.ContentIn{Room: "doc1"})
	if n := len(other.Envelopes(t)); n != 0 {
		t.Errorf("doc2 member received %d frames from doc1", n)
	}
}

func TestRelayRejections(t *testing.T) {
	h := newHarness(t)
	h.connect("idle")
	h.connect("a")
	victim := h.connect("v")
	h.join("a", "doc1", "alice")
	h.join("v", "doc2", "vic")
	victim.Reset()

	if err := h.o.ContentChange("idle", core.ContentIn{Room: "doc2"}); !errors.Is(err, ErrNotJoined) {
		t.Errorf("unjoined relay = %v", err)
	}
	if err := h.o.ContentChange("a", core.ContentIn{Room: "doc2"}); !errors.Is(err, ErrRoomMismatch) {
		t.Errorf("cross-room relay = %v", err)
	}
	if n := len(victim.Envelopes(t)); n != 0 {
		t.Errorf("rejected relay delivered %d frames", n)
	}

	// An omitted room falls back to the session's own.
	if err := h.o.ContentChange("a", core.ContentIn{}); err != nil {
		t.Errorf("relay without room = %v", err)
	}
}

func TestJoinRejections(t *testing.T) {
	h := newHarness(t)
	h.connect("a")
	if err := h.o.Join("a", core.JoinRoom{User: "alice"}); !errors.Is(err, domain.ErrRoomNameEmpty) {
		t.Errorf("join without room = %v", err)
	}
	h.join("a", "doc1", "alice")
	if err := h.o.Join("a", core.JoinRoom{Room: "doc2", User: "alice"}); !errors.Is(err, app.ErrAlreadyJoined) {
		t.Errorf("second join = %v", err)
	}
	if got := h.o.Rooms.Snapshot("doc1"); !reflect.DeepEqual(got, []domain.DisplayName{"alice"}) {
		t.Errorf("doc1 roster = %v", got)
	}
	if h.o.Rooms.Len() != 1 {
		t.Errorf("rejected join created a room: %v", h.o.Rooms.List())
	}
}

// TestDuplicateNamesRemovedOneForOne checks two sessions sharing a name.
func TestDuplicateNamesRemovedOneForOne(t *testing.T) {
	h := newHarness(t)
	h.connect("a1")
	h.connect("b")
	h.connect("a2")
	h.join("a1", "doc1", "alice")
	h.join("b", "doc1", "bob")
	h.join("a2", "doc1", "alice")

	h.o.OnDisconnect("a1")
	if got := h.o.Rooms.Snapshot("doc1"); !reflect.DeepEqual(got, []domain.DisplayName{"bob", "alice"}) {
		t.Errorf("roster = %v", got)
	}
	if got := lastRoster(t, h.recs["a2"]); !reflect.DeepEqual(got, []string{"bob", "alice"}) {
		t.Errorf("a2 roster = %v", got)
	}
}

func TestDisconnectWithoutJoin(t *testing.T) {
	h := newHarness(t)
	h.connect("a")
	h.o.OnDisconnect("a")
	h.o.OnDisconnect("a")
	if h.o.Registry.Count() != 0 || h.o.Rooms.Len() != 0 {
		t.Error("state left behind")
	}
}

// TestKickPolicyCancelsSlowMember checks the kick policy cancels the
// connection instead of tearing the session down inline.
func TestKickPolicyCancelsSlowMember(t *testing.T) {
	ctrl := gomock.NewController(t)
	slow := mocks.NewMockSignalConnection(ctrl)
	slow.EXPECT().TrySend(gomock.Any()).Return(nil).Times(1)
	slow.EXPECT().TrySend(gomock.Any()).Return(core.ErrBackpressure).Times(1)

	o := New(app.NewRegistry(), core.NewRoomDirectory(), app.KickPolicy{})
	canceled := false
	o.OnConnect("slow", slow, func() { canceled = true })
	o.OnConnect("fast", coretest.NewRecorder(), nil)

	if err := o.Join("slow", core.JoinRoom{Room: "doc1", User: "s"}); err != nil {
		t.Fatal(err)
	}
	if err := o.Join("fast", core.JoinRoom{Room: "doc1", User: "f"}); err != nil {
		t.Fatal(err)
	}
	if !canceled {
		t.Error("slow member was not canceled")
	}
	if _, ok := o.Registry.Get("slow"); !ok {
		t.Error("session removed before the disconnect event")
	}
}

func TestPingAnswersSenderOnly(t *testing.T) {
	h := newHarness(t)
	s1 := h.connect("s1")
	s2 := h.connect("s2")
	h.join("s1", "doc1", "alice")
	h.join("s2", "doc1", "bob")
	h.resetAll()

	if err := h.o.Ping("s1"); err != nil {
		t.Fatal(err)
	}
	if n := len(s1.OfType(t, core.EventPong)); n != 1 {
		t.Errorf("s1 pongs = %d", n)
	}
	if n := len(s2.Envelopes(t)); n != 0 {
		t.Errorf("s2 got %d frames", n)
	}
	if err := h.o.Ping("ghost"); !errors.Is(err, app.ErrUnknownSession) {
		t.Errorf("ping ghost: %v", err)
	}
}
