package bridge

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/annotrail/annotrail/internal/player"
	"github.com/annotrail/annotrail/internal/recorder"
	"github.com/annotrail/annotrail/internal/recording"
	"github.com/annotrail/annotrail/internal/timeline"
	"github.com/annotrail/annotrail/internal/tools"
)

func fakeNow() (func() time.Time, func(d time.Duration)) {
	var mu sync.Mutex
	cur := time.Unix(1700000000, 0)
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return cur
	}
	advance := func(d time.Duration) {
		mu.Lock()
		cur = cur.Add(d)
		mu.Unlock()
	}
	return now, advance
}

func newTestClient(t *testing.T, now func() time.Time) *client {
	t.Helper()
	store, err := recording.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	srv := NewServer(Options{Store: store, Now: now})
	return newClient(srv, nil)
}

// waitMsg drains the client's send queue until a message of the given
// type arrives.
func waitMsg(t *testing.T, cl *client, typ string) Message {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-cl.send:
			if msg.Type == typ {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q message", typ)
		}
	}
}

func TestMessageEnvelopeRoundTrip(t *testing.T) {
	t.Parallel()

	in := Message{
		Type: MsgAction,
		Action: &ActionPayload{
			Type: string(timeline.ActionBoxStart),
			Data: timeline.ActionData{Point: &timeline.Point{X: 10, Y: 20}},
		},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Message
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Type != MsgAction || out.Action == nil {
		t.Fatalf("envelope lost fields: %+v", out)
	}
	if out.Action.Data.Point == nil || out.Action.Data.Point.X != 10 {
		t.Errorf("action payload mangled: %+v", out.Action)
	}
}

func TestDecodeChunk(t *testing.T) {
	t.Parallel()

	samples := []int16{0, 1, -1, 32767, -32768}
	decoded, err := DecodeChunk(EncodeChunk(samples))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i, s := range samples {
		if decoded[i] != s {
			t.Errorf("sample %d: got %d, want %d", i, decoded[i], s)
		}
	}

	if _, err := DecodeChunk([]byte{0x01}); err == nil {
		t.Error("odd-length chunk should fail")
	}
}

func TestDebugLoggerCircular(t *testing.T) {
	t.Parallel()

	dl := NewDebugLogger()
	for i := 0; i < debugLogSize+10; i++ {
		dl.Log(ConnLogEntry{Event: "message", Detail: fmt.Sprintf("m%d", i)})
	}
	entries := dl.Entries()
	if len(entries) != debugLogSize {
		t.Fatalf("got %d entries, want %d", len(entries), debugLogSize)
	}
	if entries[0].Detail != "m10" {
		t.Errorf("oldest entry = %q, want m10", entries[0].Detail)
	}
	if entries[len(entries)-1].Detail != fmt.Sprintf("m%d", debugLogSize+9) {
		t.Errorf("newest entry = %q", entries[len(entries)-1].Detail)
	}
}

func TestRecordLifecycleSavesRecording(t *testing.T) {
	t.Parallel()

	now, advance := fakeNow()
	cl := newTestClient(t, now)

	cl.handleMessage(Message{Type: MsgRecordStart, Name: "demo"})
	st := waitMsg(t, cl, MsgRecorderStatus)
	if st.Recorder.Status != recorder.StatusRecordingNoAudio {
		t.Fatalf("start status = %q, want recording-no-audio", st.Recorder.Status)
	}

	advance(200 * time.Millisecond)
	cl.handleMessage(Message{Type: MsgAction, Action: &ActionPayload{
		Type: string(timeline.ActionToolActivated),
		Data: timeline.ActionData{Tool: tools.ToolLaserPointer},
	}})
	advance(300 * time.Millisecond)
	cl.handleMessage(Message{Type: MsgRecordStop})

	saved := waitMsg(t, cl, MsgRecordingSaved)
	if saved.ID == "" {
		t.Fatal("recording-saved carried no ID")
	}

	rec, err := cl.srv.opts.Store.Load(saved.ID)
	if err != nil {
		t.Fatalf("load saved recording: %v", err)
	}
	if rec.Duration != 500 {
		t.Errorf("duration = %d, want 500", rec.Duration)
	}
	if len(rec.Actions) != 1 || rec.Actions[0].Time != 200 {
		t.Errorf("actions = %+v", rec.Actions)
	}
}

func TestAudioChunksReachSavedRecording(t *testing.T) {
	t.Parallel()

	now, advance := fakeNow()
	cl := newTestClient(t, now)

	cl.handleMessage(Message{Type: MsgRecordStart, Name: "with-audio", Audio: true})
	st := waitMsg(t, cl, MsgRecorderStatus)
	if st.Recorder.Status != recorder.StatusRecording {
		t.Fatalf("start status = %q, want recording", st.Recorder.Status)
	}

	samples := make([]int16, 4096)
	for i := range samples {
		samples[i] = int16(i % 1000)
	}
	cl.handleMessage(Message{Type: MsgAudioChunk, Chunk: EncodeChunk(samples)})

	advance(100 * time.Millisecond)
	cl.handleMessage(Message{Type: MsgRecordStop})

	saved := waitMsg(t, cl, MsgRecordingSaved)
	rec, err := cl.srv.opts.Store.Load(saved.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rec.Audio) == 0 {
		t.Fatal("saved recording has no audio asset")
	}
}

func TestSecondRecordStartRejectedWhileActive(t *testing.T) {
	t.Parallel()

	now, _ := fakeNow()
	cl := newTestClient(t, now)

	cl.handleMessage(Message{Type: MsgRecordStart, Name: "one"})
	waitMsg(t, cl, MsgRecorderStatus)
	cl.handleMessage(Message{Type: MsgRecordStart, Name: "two"})

	errMsg := waitMsg(t, cl, MsgError)
	if !strings.Contains(errMsg.Error, "recording_active") {
		t.Errorf("error = %q, want recording_active", errMsg.Error)
	}
}

func TestReplayForwardsActionsToPage(t *testing.T) {
	t.Parallel()

	now, advance := fakeNow()
	cl := newTestClient(t, now)

	rec := &recording.Recording{
		ID:       "replay-20240101T000000-000000000Z",
		Name:     "replay",
		Duration: 100,
		Actions: []timeline.Action{
			{Time: 0, Type: timeline.ActionToolActivated, Data: timeline.ActionData{Tool: tools.ToolLaserPointer}},
			{Time: 50, Type: timeline.ActionPointerMove, Data: timeline.ActionData{Point: &timeline.Point{X: 5, Y: 6}}},
		},
	}
	if err := cl.srv.opts.Store.Save(rec); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	cl.handleMessage(Message{Type: MsgLoad, ID: rec.ID})
	loaded := waitMsg(t, cl, MsgPlayerStatus)
	if loaded.Player.Status != player.StatusLoaded {
		t.Fatalf("load status = %q", loaded.Player.Status)
	}

	cl.handleMessage(Message{Type: MsgPlay})
	advance(200 * time.Millisecond)
	cl.play.Tick()

	activated := waitMsg(t, cl, MsgReplayAction)
	if activated.Action.Type != string(timeline.ActionToolActivated) {
		t.Fatalf("first replay action = %q", activated.Action.Type)
	}
	move := waitMsg(t, cl, MsgReplayAction)
	if move.Action.Type != string(timeline.ActionPointerMove) || move.Action.Data.Point.X != 5 {
		t.Errorf("pointer move mangled: %+v", move.Action)
	}
}

func TestLoadUnknownRecordingReportsError(t *testing.T) {
	t.Parallel()

	now, _ := fakeNow()
	cl := newTestClient(t, now)

	cl.handleMessage(Message{Type: MsgLoad, ID: "nope-20240101T000000-000000000Z"})
	errMsg := waitMsg(t, cl, MsgError)
	if errMsg.Error == "" {
		t.Fatal("expected error payload")
	}
}

func TestUnknownMessageTypeReportsError(t *testing.T) {
	t.Parallel()

	now, _ := fakeNow()
	cl := newTestClient(t, now)

	cl.handleMessage(Message{Type: "bogus"})
	errMsg := waitMsg(t, cl, MsgError)
	if !strings.Contains(errMsg.Error, "message_unknown") {
		t.Errorf("error = %q, want message_unknown", errMsg.Error)
	}
}

func TestWebSocketRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := recording.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	srv := NewServer(Options{Store: store})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	if err := conn.WriteJSON(Message{Type: MsgRecordStart, Name: "wire"}); err != nil {
		t.Fatalf("write record-start: %v", err)
	}
	if err := conn.WriteJSON(Message{Type: MsgRecordStop}); err != nil {
		t.Fatalf("write record-stop: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			t.Fatalf("set deadline: %v", err)
		}
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type == MsgRecordingSaved {
			if msg.ID == "" {
				t.Fatal("recording-saved carried no ID")
			}
			break
		}
	}

	recs, err := store.List(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("store has %d recordings, want 1", len(recs))
	}
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	store, err := recording.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	srv := NewServer(Options{Store: store})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("health status = %v", body["status"])
	}
}
