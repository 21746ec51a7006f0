// server.go — WebSocket bridge between the browser page and the daemon.
// One connection per page; each connection owns its own recorder and
// player so concurrent pages never share session state.
package bridge

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/annotrail/annotrail/internal/audio"
	"github.com/annotrail/annotrail/internal/player"
	"github.com/annotrail/annotrail/internal/recorder"
	"github.com/annotrail/annotrail/internal/recording"
	"github.com/annotrail/annotrail/internal/timeline"
	"github.com/annotrail/annotrail/internal/tools"
	"github.com/annotrail/annotrail/internal/util"
)

// sendQueueSize bounds per-connection outbound buffering. A page that
// stops reading gets messages dropped rather than wedging the daemon.
const sendQueueSize = 256

// Options configures a bridge Server.
type Options struct {
	Store *recording.Store
	Now   func() time.Time // test hook, defaults to time.Now
}

// Server accepts page connections and routes wire messages to the
// per-connection recorder and player.
type Server struct {
	opts     Options
	upgrader websocket.Upgrader
	debug    *DebugLogger

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewServer creates a bridge server backed by the given store.
func NewServer(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The page is served from the image host, not from the
			// daemon, so origins cannot be pinned ahead of time.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		debug:   NewDebugLogger(),
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the HTTP mux exposing /ws and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// ClientCount returns the number of connected pages.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// DebugEntries returns recent connection events, oldest first.
func (s *Server) DebugEntries() []ConnLogEntry {
	return s.debug.Entries()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := s.opts.Store.Storage()
	resp := map[string]any{
		"status":        "ok",
		"clients":       s.ClientCount(),
		"storage_bytes": info.UsedBytes,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		fmt.Fprintf(os.Stderr, "[annotrail] health encode failed: %v\n", err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[annotrail] websocket upgrade failed: %v\n", err)
		return
	}
	cl := newClient(s, conn)
	s.addClient(cl)
	s.debug.Log(ConnLogEntry{Remote: conn.RemoteAddr().String(), Event: "connect"})

	util.SafeGo(cl.writeLoop)
	cl.readLoop()

	s.removeClient(cl)
	cl.shutdown()
	s.debug.Log(ConnLogEntry{Remote: conn.RemoteAddr().String(), Event: "disconnect"})
}

func (s *Server) addClient(cl *client) {
	s.mu.Lock()
	s.clients[cl] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) removeClient(cl *client) {
	s.mu.Lock()
	delete(s.clients, cl)
	s.mu.Unlock()
}

// ============================================================
// Per-connection client
// ============================================================

// client is one connected page. Message handling runs on the single
// read loop goroutine; status callbacks from recorder and player
// tickers enqueue through the send channel, which is safe from any
// goroutine.
type client struct {
	srv  *Server
	conn *websocket.Conn
	send chan Message
	done chan struct{}

	rec    *recorder.Recorder
	chunks *audio.ChunkSource
	sink   *wsAudioSink
	play   *player.Player
}

func newClient(srv *Server, conn *websocket.Conn) *client {
	cl := &client{
		srv:  srv,
		conn: conn,
		send: make(chan Message, sendQueueSize),
		done: make(chan struct{}),
	}
	cl.sink = &wsAudioSink{cl: cl}
	cl.play = player.New(player.Options{
		Tools: player.Registry{
			tools.ToolLaserPointer: &forwardingTrail{cl: cl},
			tools.ToolBoundingBox:  &forwardingBox{cl: cl},
		},
		Audio: cl.sink,
		Now:   srv.opts.Now,
		OnStatus: func(st player.Status) {
			s := st
			cl.enqueue(Message{Type: MsgPlayerStatus, Player: &s})
		},
	})
	return cl
}

func (cl *client) readLoop() {
	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			cl.srv.debug.Log(ConnLogEntry{
				Remote: cl.conn.RemoteAddr().String(),
				Event:  "drop",
				Detail: "malformed message",
			})
			cl.enqueue(Message{Type: MsgError, Error: "message_malformed: Could not parse message"})
			continue
		}
		cl.srv.debug.Log(ConnLogEntry{
			Remote: cl.conn.RemoteAddr().String(),
			Event:  "message",
			Detail: msg.Type,
		})
		cl.handleMessage(msg)
	}
}

func (cl *client) writeLoop() {
	for {
		select {
		case msg := <-cl.send:
			if err := cl.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-cl.done:
			return
		}
	}
}

// enqueue queues an outbound message, dropping it when the page has
// stopped reading. Safe from any goroutine.
func (cl *client) enqueue(msg Message) {
	select {
	case cl.send <- msg:
	default:
		cl.srv.debug.Log(ConnLogEntry{Event: "drop", Detail: "send queue full: " + msg.Type})
	}
}

// shutdown releases connection-scoped session state. An in-flight
// recording is finalized and saved so a page crash loses nothing.
func (cl *client) shutdown() {
	close(cl.done)
	if cl.chunks != nil {
		_ = cl.chunks.Close()
	}
	if cl.rec != nil {
		if rec := cl.rec.Stop(); rec != nil {
			if err := cl.srv.opts.Store.Save(rec); err != nil {
				fmt.Fprintf(os.Stderr, "[annotrail] save on disconnect failed: %v\n", err)
			}
		}
	}
	cl.play.Stop()
	_ = cl.conn.Close()
}

// handleMessage routes one inbound message. Runs only on the read loop
// goroutine, so recorder and chunk-source swaps need no lock.
func (cl *client) handleMessage(msg Message) {
	switch msg.Type {
	case MsgRecordStart:
		cl.startRecording(msg)
	case MsgRecordPause:
		if cl.rec != nil {
			cl.rec.Pause()
		}
	case MsgRecordResume:
		if cl.rec != nil {
			cl.rec.Resume()
		}
	case MsgRecordStop:
		cl.stopRecording()
	case MsgAction:
		cl.recordAction(msg)
	case MsgAudioChunk:
		cl.pushChunk(msg)
	case MsgLoad:
		cl.loadRecording(msg)
	case MsgPlay:
		cl.play.Play()
	case MsgPause:
		cl.play.Pause()
	case MsgStop:
		cl.play.Stop()
	case MsgZoom:
		cl.play.SetZoom(msg.Zoom)
	case MsgAudioEnded:
		cl.sink.ended(msg.Error)
	default:
		cl.enqueue(Message{Type: MsgError, Error: fmt.Sprintf("message_unknown: Unknown message type %q", msg.Type)})
	}
}

func (cl *client) startRecording(msg Message) {
	if cl.rec != nil && (cl.rec.Phase() == recorder.PhaseRecording || cl.rec.Phase() == recorder.PhasePaused) {
		cl.enqueue(Message{Type: MsgError, Error: "recording_active: A recording is already in progress"})
		return
	}
	var dev audio.Device
	cl.chunks = nil
	if msg.Audio {
		cl.chunks = audio.NewChunkSource()
		dev = &audio.ChunkDevice{Source: cl.chunks}
	}
	cl.rec = recorder.New(recorder.Options{
		Device: dev,
		Now:    cl.srv.opts.Now,
		OnStatus: func(st recorder.Status) {
			s := st
			cl.enqueue(Message{Type: MsgRecorderStatus, Recorder: &s})
		},
	})
	cl.rec.Start(msg.Name)
}

func (cl *client) stopRecording() {
	if cl.rec == nil {
		return
	}
	if cl.chunks != nil {
		_ = cl.chunks.Close()
		cl.chunks = nil
	}
	rec := cl.rec.Stop()
	if rec == nil {
		return
	}
	if err := cl.srv.opts.Store.Save(rec); err != nil {
		cl.enqueue(Message{Type: MsgError, Error: err.Error()})
		return
	}
	cl.enqueue(Message{Type: MsgRecordingSaved, ID: rec.ID})
}

func (cl *client) recordAction(msg Message) {
	if cl.rec == nil || msg.Action == nil {
		return
	}
	cl.rec.RecordAction(timeline.ActionType(msg.Action.Type), msg.Action.Data)
}

func (cl *client) pushChunk(msg Message) {
	if cl.chunks == nil {
		return
	}
	samples, err := DecodeChunk(msg.Chunk)
	if err != nil {
		cl.enqueue(Message{Type: MsgError, Error: err.Error()})
		return
	}
	if err := cl.chunks.Push(samples); err != nil && !audio.Recoverable(err) {
		cl.enqueue(Message{Type: MsgError, Error: err.Error()})
	}
}

func (cl *client) loadRecording(msg Message) {
	rec, err := cl.srv.opts.Store.Load(msg.ID)
	if err != nil {
		cl.enqueue(Message{Type: MsgError, Error: err.Error()})
		return
	}
	if err := cl.play.Load(rec); err != nil {
		cl.enqueue(Message{Type: MsgError, Error: err.Error()})
	}
}

// ============================================================
// Replay forwarding
// ============================================================

// wsAudioSink relays player audio commands to the page's audio element.
// The page owns actual playback and reports completion via audio-ended.
type wsAudioSink struct {
	cl *client

	mu      sync.Mutex
	onEnded func(err error)
}

func (s *wsAudioSink) Play(asset []byte, onEnded func(err error)) error {
	s.mu.Lock()
	s.onEnded = onEnded
	s.mu.Unlock()
	s.cl.enqueue(Message{Type: MsgAudioPlay, Asset: asset})
	return nil
}

func (s *wsAudioSink) Pause()  { s.cl.enqueue(Message{Type: MsgAudioPause}) }
func (s *wsAudioSink) Resume() { s.cl.enqueue(Message{Type: MsgAudioResume}) }

func (s *wsAudioSink) Stop() {
	s.mu.Lock()
	s.onEnded = nil
	s.mu.Unlock()
	s.cl.enqueue(Message{Type: MsgAudioStop})
}

// ended fires the registered completion callback once.
func (s *wsAudioSink) ended(errMsg string) {
	s.mu.Lock()
	cb := s.onEnded
	s.onEnded = nil
	s.mu.Unlock()
	if cb == nil {
		return
	}
	var err error
	if errMsg != "" {
		err = fmt.Errorf("audio_playback_failed: %s", errMsg)
	}
	cb(err)
}

// forwardingTrail relays laser-pointer replay events to the page as
// replay-action messages. The page's own tool renders them, so replay
// visuals match live annotation exactly.
type forwardingTrail struct {
	cl *client
}

func (f *forwardingTrail) Activate(options map[string]any) {
	f.cl.enqueue(replayAction(timeline.ActionToolActivated, timeline.ActionData{
		Tool:    tools.ToolLaserPointer,
		Options: options,
	}))
}

func (f *forwardingTrail) Deactivate() {
	f.cl.enqueue(replayAction(timeline.ActionToolDeactivated, timeline.ActionData{}))
}

func (f *forwardingTrail) AddTrailPoint(p timeline.Point) {
	f.cl.enqueue(replayAction(timeline.ActionPointerMove, timeline.ActionData{Point: &p}))
}

// forwardingBox relays bounding-box replay events to the page.
type forwardingBox struct {
	cl *client
}

func (f *forwardingBox) Activate(options map[string]any) {
	f.cl.enqueue(replayAction(timeline.ActionToolActivated, timeline.ActionData{
		Tool:    tools.ToolBoundingBox,
		Options: options,
	}))
}

func (f *forwardingBox) Deactivate() {
	f.cl.enqueue(replayAction(timeline.ActionToolDeactivated, timeline.ActionData{}))
}

func (f *forwardingBox) StartBox(p timeline.Point) {
	f.cl.enqueue(replayAction(timeline.ActionBoxStart, timeline.ActionData{Point: &p}))
}

func (f *forwardingBox) UpdateBox(p timeline.Point) {
	f.cl.enqueue(replayAction(timeline.ActionBoxUpdate, timeline.ActionData{Point: &p}))
}

func (f *forwardingBox) FinishBox(p timeline.Point) {
	f.cl.enqueue(replayAction(timeline.ActionBoxEnd, timeline.ActionData{Point: &p}))
}

func (f *forwardingBox) ClearBoxes() {}

func replayAction(typ timeline.ActionType, data timeline.ActionData) Message {
	return Message{Type: MsgReplayAction, Action: &ActionPayload{Type: string(typ), Data: data}}
}
