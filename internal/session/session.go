// Package session implements the FIX session layer: logon/logout handshake,
// sequence validation, gap detection and recovery, heartbeat liveness, and
// resend service. One Session owns one logical conversation; all state is
// mutated by the single goroutine inside Run.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finexio/fixwire/internal/dict"
	"github.com/finexio/fixwire/internal/fast"
	"github.com/finexio/fixwire/internal/field"
	"github.com/finexio/fixwire/internal/message"
	"github.com/finexio/fixwire/internal/metrics"
	"github.com/finexio/fixwire/internal/store"
	"github.com/finexio/fixwire/internal/tagvalue"
	"github.com/finexio/fixwire/internal/transport"
	"github.com/finexio/fixwire/pkg/logger"
)

type sendReq struct {
	msg  *message.Message
	resp chan error
}

// Session is one logical conversation with a counterparty. Construct with
// New, drive with Run, feed with Send, observe with Inbound and Events.
type Session struct {
	cfg  Config
	dict *dict.Dictionary
	log  *zap.Logger
	met  *metrics.Metrics

	tr  transport.Transport
	st  store.MessageStore
	enc *tagvalue.Encoder
	dec *tagvalue.Decoder
	sep byte

	// fastCtx is the compact-codec operator state for this session. It lives
	// here so two sessions sharing a template registry can never share
	// previous-value state.
	fastCtx *fast.Context

	// connID identifies this physical connection in logs; the session
	// identity in cfg outlives it.
	connID string

	mu     sync.Mutex
	status Status

	nextIn  uint64 // next expected inbound sequence number
	nextOut uint64 // next outbound sequence number to assign

	buf        *recoveryBuffer
	resendHigh uint64 // top of the outstanding resend range, 0 when none

	hbInt          time.Duration // negotiated at logon
	lastRecv       time.Time
	lastSent       time.Time
	pendingTestReq string
	testReqAt      time.Time
	logoutAt       time.Time
	activeMark     bool // counted in the active-sessions gauge

	frames  chan []byte
	readErr chan error
	sendCh  chan sendReq
	logout  chan string
	inbound chan *message.Message
	events  chan Event
	done    chan struct{}
}

// New builds a session over tr, logging messages to st. The dictionary must
// contain the session-layer message definitions. A nil log falls back to the
// default stderr logger.
func New(cfg Config, d *dict.Dictionary, tr transport.Transport, st store.MessageStore, log *zap.Logger, met *metrics.Metrics) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if met == nil {
		met = metrics.NewUnregistered()
	}
	if log == nil {
		log = logger.Default()
	}
	s := &Session{
		cfg:     cfg,
		dict:    d,
		log:     log.With(zap.String("session", cfg.SessionID())),
		met:     met,
		tr:      tr,
		st:      st,
		enc:     tagvalue.NewEncoder(d),
		dec:     tagvalue.NewDecoder(d),
		sep:     tagvalue.SOH,
		fastCtx: fast.NewContext(),
		connID:  uuid.NewString(),
		status:  Disconnected,
		hbInt:   cfg.HeartbeatInterval,
		buf:     newRecoveryBuffer(),
		frames:  make(chan []byte, 32),
		readErr: make(chan error, 1),
		sendCh:  make(chan sendReq),
		logout:  make(chan string, 1),
		inbound: make(chan *message.Message, 128),
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
	}
	return s, nil
}

// SetSeparator overrides the wire field separator before Run. Tests use '|'.
func (s *Session) SetSeparator(sep byte) {
	s.sep = sep
	s.enc.SetSeparator(sep)
	s.dec.SetSeparator(sep)
}

// FASTContext returns this session's compact-codec operator state.
func (s *Session) FASTContext() *fast.Context { return s.fastCtx }

// ConnID returns the physical-connection instance ID.
func (s *Session) ConnID() string { return s.connID }

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Inbound delivers business messages in strict ascending sequence order. The
// channel closes when the session ends.
func (s *Session) Inbound() <-chan *message.Message { return s.inbound }

// Events delivers lifecycle transitions. The channel closes when the session
// ends; slow consumers lose events rather than stalling the machine.
func (s *Session) Events() <-chan Event { return s.events }

// Send queues msg for transmission. It blocks until the run loop has stamped,
// stored, and written the message, and returns the outcome.
func (s *Session) Send(ctx context.Context, msg *message.Message) error {
	req := sendReq{msg: msg, resp: make(chan error, 1)}
	select {
	case s.sendCh <- req:
	case <-s.done:
		return ErrNotActive
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Logout initiates a clean logout. The session sends Logout, waits a bounded
// grace period for the counterparty's reply, then disconnects either way.
func (s *Session) Logout(reason string) {
	select {
	case s.logout <- reason:
	default:
	}
}

// Run drives the session until logout, fatal error, or ctx cancellation. It
// restores sequence counters from the store, performs the logon handshake,
// then serializes all inbound handling, timers, and sends through its loop.
func (s *Session) Run(ctx context.Context) (err error) {
	defer func() {
		s.teardown(err)
		close(s.inbound)
		close(s.events)
	}()

	in, out, lerr := s.st.LoadSequenceNumbers(ctx, s.cfg.SessionID())
	if lerr != nil {
		return &StoreError{Op: "load sequence numbers", Err: lerr}
	}
	s.nextIn, s.nextOut = in+1, out+1
	if s.cfg.ResetOnLogon {
		s.nextIn, s.nextOut = 1, 1
	}
	s.log.Info("session starting",
		zap.String("conn", s.connID),
		zap.Bool("initiator", s.cfg.Initiator),
		zap.Uint64("next_in", s.nextIn),
		zap.Uint64("next_out", s.nextOut))

	go s.readLoop()

	now := time.Now()
	s.lastRecv, s.lastSent = now, now
	if s.cfg.Initiator {
		if err := s.sendMsg(ctx, s.logonMsg()); err != nil {
			return err
		}
		s.setStatus(LogonInitiated, "logon sent")
	} else {
		s.setStatus(LogonPending, "awaiting logon")
	}

	logonTimer := time.NewTimer(s.cfg.LogonTimeout)
	defer logonTimer.Stop()
	tick := time.NewTicker(s.tickQuantum())
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw := <-s.frames:
			if err := s.handleFrame(ctx, raw); err != nil {
				return err
			}
			if s.Status() == Disconnected {
				return nil
			}

		case rerr := <-s.readErr:
			switch s.Status() {
			case PendingLogout, Disconnected:
				return nil
			}
			return &TransportError{Err: rerr}

		case <-logonTimer.C:
			switch s.Status() {
			case LogonInitiated, LogonPending:
				return ErrLogonTimeout
			}

		case now := <-tick.C:
			if err := s.checkTimers(ctx, now); err != nil {
				return err
			}
			if s.Status() == Disconnected {
				return nil
			}

		case req := <-s.sendCh:
			switch s.Status() {
			case Active, Recovering:
			default:
				req.resp <- ErrNotActive
				continue
			}
			err := s.sendMsg(ctx, req.msg)
			req.resp <- err
			if isFatalSend(err) {
				return err
			}

		case reason := <-s.logout:
			if err := s.sendMsg(ctx, s.logoutMsg(reason)); err != nil {
				return err
			}
			s.logoutAt = time.Now()
			s.setStatus(PendingLogout, reason)
		}
	}
}

// isFatalSend separates errors that poison the session (durability or
// transport loss) from per-message encode failures the caller just gets back.
func isFatalSend(err error) bool {
	if err == nil {
		return false
	}
	var se *StoreError
	var te *TransportError
	return errors.As(err, &se) || errors.As(err, &te)
}

func (s *Session) tickQuantum() time.Duration {
	q := s.hbInt / 4
	if q < 5*time.Millisecond {
		q = 5 * time.Millisecond
	}
	return q
}

func (s *Session) readLoop() {
	sr := tagvalue.NewStreamReader(s.tr, s.sep)
	for {
		raw, err := sr.ReadFrame()
		if err != nil {
			// Framing garbage is not a transport failure. The stream reader
			// resynchronizes on the next BeginString, so drop the junk and
			// keep reading.
			var mal *tagvalue.MalformedError
			if errors.As(err, &mal) {
				s.met.MalformedFrames.WithLabelValues(s.cfg.SessionID()).Inc()
				s.log.Warn("dropping unframeable bytes", zap.String("reason", mal.Reason))
				continue
			}
			if errors.Is(err, tagvalue.ErrFrameTooLarge) {
				s.met.MalformedFrames.WithLabelValues(s.cfg.SessionID()).Inc()
				s.log.Warn("dropping oversized frame")
				continue
			}
			select {
			case s.readErr <- err:
			case <-s.done:
			}
			return
		}
		select {
		case s.frames <- raw:
		case <-s.done:
			return
		}
	}
}

// handleFrame decodes one frame and routes it. A malformed frame is dropped;
// a schema violation draws a Reject; everything else goes through sequence
// validation and then admin interception or application dispatch.
func (s *Session) handleFrame(ctx context.Context, raw []byte) error {
	msg, err := s.dec.Decode(raw)
	if err != nil {
		var mal *tagvalue.MalformedError
		if errors.As(err, &mal) {
			s.met.MalformedFrames.WithLabelValues(s.cfg.SessionID()).Inc()
			s.log.Warn("dropping malformed frame", zap.String("reason", mal.Reason))
			return nil
		}
		var sch *tagvalue.SchemaError
		if errors.As(err, &sch) {
			return s.sendReject(ctx, sch)
		}
		return err
	}
	s.lastRecv = time.Now()
	s.pendingTestReq = ""
	s.met.MessagesIn.WithLabelValues(s.cfg.SessionID(), msg.Admin().String()).Inc()

	seq, ok := msg.SeqNum()
	if !ok {
		return fatal("missing or non-numeric MsgSeqNum")
	}

	// A Logon carrying ResetSeqNumFlag=Y restarts both counters before
	// sequence validation; it arrives as seq 1 by definition.
	if msg.Admin() == message.KindLogon {
		if v, ok := msg.Body.Get(dict.TagResetSeqNumFlag); ok {
			if reset, _ := v.Bool(); reset {
				s.log.Info("counterparty requested sequence reset")
				s.nextIn, s.nextOut = 1, 1
				s.buf.clear()
				s.resendHigh = 0
			}
		}
	}

	// SequenceReset bypasses normal validation: it exists to move the
	// inbound counter over a gap.
	if msg.Admin() == message.KindSequenceReset {
		return s.onSequenceReset(ctx, msg)
	}

	switch {
	case seq == s.nextIn:
		s.nextIn++
		if err := s.st.Append(ctx, s.cfg.SessionID(), store.Inbound, seq, raw); err != nil {
			return &StoreError{Op: "append inbound", Err: err}
		}
		if err := s.dispatch(ctx, msg); err != nil {
			return err
		}
		return s.drainBuffer(ctx)

	case seq > s.nextIn:
		return s.onGap(ctx, seq, msg, raw)

	default: // duplicate
		if msg.PossDup() {
			s.log.Info("dropping possible duplicate",
				zap.Uint64("seq", seq), zap.Uint64("expected", s.nextIn))
			return nil
		}
		return fatal("sequence number %d below expected %d without PossDupFlag", seq, s.nextIn)
	}
}

// onGap buffers the early arrival and emits exactly one ResendRequest per
// recovery cycle.
func (s *Session) onGap(ctx context.Context, seq uint64, msg *message.Message, raw []byte) error {
	width := seq - s.nextIn
	if width > uint64(s.cfg.MaxGap) || s.buf.len() >= s.cfg.MaxGap {
		return fatal("sequence gap of %d exceeds limit %d", width, s.cfg.MaxGap)
	}
	s.buf.put(seq, msg, raw)

	if s.resendHigh == 0 {
		s.met.SequenceGaps.WithLabelValues(s.cfg.SessionID()).Inc()
		if err := s.requestResend(ctx, s.nextIn, seq-1); err != nil {
			return err
		}
		s.setStatus(Recovering, fmt.Sprintf("gap %d-%d", s.nextIn, seq-1))
		s.log.Warn("sequence gap detected",
			zap.Uint64("expected", s.nextIn), zap.Uint64("got", seq))
	}
	return nil
}

func (s *Session) requestResend(ctx context.Context, from, to uint64) error {
	s.met.ResendRequests.WithLabelValues(s.cfg.SessionID()).Inc()
	if err := s.sendMsg(ctx, s.resendRequestMsg(from, to)); err != nil {
		return err
	}
	s.resendHigh = to
	return nil
}

// drainBuffer dispatches the contiguous run of buffered messages starting at
// the expected sequence number, then either closes the recovery cycle or, if
// a further gap opened behind the first, requests the next range.
func (s *Session) drainBuffer(ctx context.Context) error {
	for {
		entry, ok := s.buf.take(s.nextIn)
		if !ok {
			break
		}
		seq := s.nextIn
		s.nextIn++
		if err := s.st.Append(ctx, s.cfg.SessionID(), store.Inbound, seq, entry.raw); err != nil {
			return &StoreError{Op: "append inbound", Err: err}
		}
		if err := s.dispatch(ctx, entry.msg); err != nil {
			return err
		}
	}
	if s.resendHigh != 0 && s.nextIn > s.resendHigh {
		if s.buf.len() == 0 {
			s.resendHigh = 0
			s.setStatus(Active, "gap filled")
			s.log.Info("recovery complete", zap.Uint64("next_in", s.nextIn))
		} else if high := s.buf.highest(); high > s.nextIn {
			// A second gap opened behind the first.
			if err := s.requestResend(ctx, s.nextIn, high-1); err != nil {
				return err
			}
		}
	}
	return nil
}

// dispatch intercepts administrative messages and forwards everything else to
// the application, already sequence-validated and in order.
func (s *Session) dispatch(ctx context.Context, msg *message.Message) error {
	switch s.Status() {
	case LogonPending, LogonInitiated:
		switch msg.Admin() {
		case message.KindLogon, message.KindLogout, message.KindReject:
		default:
			return fatal("%s received before logon", msg.Admin())
		}
	}
	switch msg.Admin() {
	case message.KindLogon:
		return s.onLogon(ctx, msg)
	case message.KindLogout:
		return s.onLogout(ctx, msg)
	case message.KindHeartbeat:
		return nil // liveness already noted in handleFrame
	case message.KindTestRequest:
		id, _ := msg.Body.Get(dict.TagTestReqID)
		return s.sendMsg(ctx, s.heartbeatMsg(id))
	case message.KindResendRequest:
		return s.serveResend(ctx, msg)
	case message.KindReject:
		s.logInboundReject(msg)
		return nil
	case message.KindSequenceReset:
		return nil // handled before sequence validation
	default:
		if _, known := s.dict.MessageByType(msg.MsgType); !known {
			s.log.Warn("forwarding unrecognized message type", zap.String("msg_type", msg.MsgType))
		}
		s.inbound <- msg
		return nil
	}
}

func (s *Session) onLogon(ctx context.Context, msg *message.Message) error {
	if v, ok := msg.Body.Get(dict.TagHeartBtInt); ok {
		if secs, ok := v.Int(); ok && secs > 0 {
			s.hbInt = time.Duration(secs) * time.Second
		}
	}
	switch s.Status() {
	case LogonPending:
		// Acceptor side: answer with our own Logon.
		if err := s.sendMsg(ctx, s.logonMsg()); err != nil {
			return err
		}
	case LogonInitiated:
	case Active, Recovering:
		s.log.Warn("logon received on established session, ignoring")
		return nil
	default:
		return fatal("logon in state %s", s.Status())
	}
	s.setStatus(Active, "logon complete")
	if !s.activeMark {
		s.activeMark = true
		s.met.ActiveSessions.Inc()
	}
	s.log.Info("session active", zap.Duration("heartbeat", s.hbInt))
	return nil
}

func (s *Session) onLogout(ctx context.Context, msg *message.Message) error {
	if v, ok := msg.Body.Get(dict.TagText); ok {
		if text, ok := v.Str(); ok && text != "" {
			s.log.Info("counterparty logout", zap.String("text", text))
		}
	}
	if s.Status() != PendingLogout {
		// Counterparty initiated: confirm before disconnecting.
		if err := s.sendMsg(ctx, s.logoutMsg("confirming logout")); err != nil {
			return err
		}
	}
	s.setStatus(Disconnected, "logout complete")
	return nil
}

// onSequenceReset moves the inbound counter forward. Gap-fill mode is the
// normal resend-time variant; reset mode is an operator action. Either way
// the new value must not rewind the counter.
func (s *Session) onSequenceReset(ctx context.Context, msg *message.Message) error {
	v, ok := msg.Body.Get(dict.TagNewSeqNo)
	if !ok {
		return fatal("SequenceReset without NewSeqNo")
	}
	newSeq, ok := v.Int()
	if !ok || newSeq <= 0 {
		return fatal("SequenceReset with non-numeric NewSeqNo")
	}
	if uint64(newSeq) < s.nextIn {
		return s.sendReject(ctx, &tagvalue.SchemaError{
			Reason:  tagvalue.ReasonValueIncorrect,
			Tag:     dict.TagNewSeqNo,
			MsgType: msg.MsgType,
			Detail:  fmt.Sprintf("NewSeqNo %d would rewind expected %d", newSeq, s.nextIn),
		})
	}
	s.log.Info("sequence reset", zap.Uint64("from", s.nextIn), zap.Int64("to", newSeq))
	s.nextIn = uint64(newSeq)
	return s.drainBuffer(ctx)
}

// serveResend replays the requested outbound range from the store. Business
// messages go out again flagged PossDup with their original sending time;
// administrative messages are not replayed and collapse into gap-fill
// SequenceResets, as do ranges missing from the log.
func (s *Session) serveResend(ctx context.Context, msg *message.Message) error {
	beginV, ok := msg.Body.Get(dict.TagBeginSeqNo)
	if !ok {
		return fatal("ResendRequest without BeginSeqNo")
	}
	begin, _ := beginV.Int()
	endV, _ := msg.Body.Get(dict.TagEndSeqNo)
	end, _ := endV.Int()
	if end == 0 || uint64(end) >= s.nextOut {
		end = int64(s.nextOut - 1)
	}
	if begin <= 0 || begin > end {
		return fatal("ResendRequest with invalid range %d-%d", begin, end)
	}
	s.log.Info("serving resend", zap.Int64("from", begin), zap.Int64("to", end))

	raws, err := s.st.FetchRange(ctx, s.cfg.SessionID(), store.Outbound, uint64(begin), uint64(end))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return &StoreError{Op: "fetch resend range", Err: err}
	}

	// cursor tracks the next sequence number still owed to the peer. Anything
	// between it and the next replayable message, including ranges the store
	// has no record of, collapses into one gap-fill.
	cursor := uint64(begin)
	now := time.Now()
	for _, raw := range raws {
		orig, err := s.dec.Decode(raw)
		if err != nil {
			return fmt.Errorf("session: stored message unreadable: %w", err)
		}
		seq, _ := orig.SeqNum()
		if orig.Admin() != message.KindBusiness {
			continue
		}
		if cursor < seq {
			if err := s.transmit(s.gapFillMsg(cursor, seq)); err != nil {
				return err
			}
		}
		if err := s.transmit(resendCopy(orig, now)); err != nil {
			return err
		}
		cursor = seq + 1
	}
	if cursor <= uint64(end) {
		if err := s.transmit(s.gapFillMsg(cursor, uint64(end)+1)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) logInboundReject(msg *message.Message) {
	var fields []zap.Field
	if v, ok := msg.Body.Get(dict.TagRefSeqNum); ok {
		if n, ok := v.Int(); ok {
			fields = append(fields, zap.Int64("ref_seq", n))
		}
	}
	if v, ok := msg.Body.Get(dict.TagText); ok {
		if text, ok := v.Str(); ok {
			fields = append(fields, zap.String("text", text))
		}
	}
	s.log.Warn("counterparty rejected a message", fields...)
}

// checkTimers runs the heartbeat schedule, inbound liveness tracking, and the
// logout grace period.
func (s *Session) checkTimers(ctx context.Context, now time.Time) error {
	switch s.Status() {
	case Active, Recovering:
	case PendingLogout:
		if !s.logoutAt.IsZero() && now.Sub(s.logoutAt) >= s.cfg.LogoutTimeout {
			s.log.Warn("logout grace period expired, forcing teardown")
			s.setStatus(Disconnected, "logout timed out")
		}
		return nil
	default:
		return nil
	}

	if now.Sub(s.lastSent) >= s.hbInt {
		if err := s.sendMsg(ctx, s.heartbeatMsg(field.Value{})); err != nil {
			return err
		}
	}
	// Test request after 1.2x the interval of inbound silence.
	silence := now.Sub(s.lastRecv)
	threshold := s.hbInt + s.hbInt/5
	if s.pendingTestReq == "" && silence >= threshold {
		id := uuid.NewString()
		if err := s.sendMsg(ctx, s.testRequestMsg(id)); err != nil {
			return err
		}
		s.pendingTestReq = id
		s.testReqAt = now
		s.met.TestRequests.WithLabelValues(s.cfg.SessionID()).Inc()
		s.log.Warn("no inbound traffic, test request sent", zap.String("test_req_id", id))
	} else if s.pendingTestReq != "" && now.Sub(s.testReqAt) >= s.cfg.TestRequestTimeout {
		return fatal("test request %s unanswered", s.pendingTestReq)
	}
	return nil
}

// sendMsg stamps the standard header, durably stores the message, and writes
// it to the transport. The message is not considered sent until the store
// append returns, so the sequence number only advances afterwards.
func (s *Session) sendMsg(ctx context.Context, msg *message.Message) error {
	out := s.stamped(msg, s.nextOut, time.Now())
	raw, err := s.enc.Encode(out)
	if err != nil {
		return err
	}
	if err := s.st.Append(ctx, s.cfg.SessionID(), store.Outbound, s.nextOut, raw); err != nil {
		return &StoreError{Op: "append outbound", Err: err}
	}
	if _, err := s.tr.Write(raw); err != nil {
		return &TransportError{Err: err}
	}
	s.nextOut++
	s.lastSent = time.Now()
	s.met.MessagesOut.WithLabelValues(s.cfg.SessionID(), out.Admin().String()).Inc()
	return nil
}

// transmit writes an already-sequenced message (a resend or gap-fill) without
// assigning a new sequence number or re-storing it.
func (s *Session) transmit(msg *message.Message) error {
	raw, err := s.enc.Encode(msg)
	if err != nil {
		return err
	}
	if _, err := s.tr.Write(raw); err != nil {
		return &TransportError{Err: err}
	}
	s.lastSent = time.Now()
	return nil
}

// stamped builds the outbound form of msg: identity, sequence number, and
// sending time, followed by any extra header fields the caller set.
func (s *Session) stamped(msg *message.Message, seq uint64, now time.Time) *message.Message {
	hdr := message.NewFieldList()
	hdr.Append(dict.TagSenderCompID, field.String(s.cfg.SenderCompID))
	hdr.Append(dict.TagTargetCompID, field.String(s.cfg.TargetCompID))
	hdr.Append(dict.TagMsgSeqNum, field.Int(int64(seq)))
	hdr.Append(dict.TagSendingTime, field.UTCTimestamp(now, field.PrecisionMillis))
	for i := 0; i < msg.Header.Len(); i++ {
		e := msg.Header.EntryAt(i)
		switch e.Tag {
		case dict.TagSenderCompID, dict.TagTargetCompID, dict.TagMsgSeqNum, dict.TagSendingTime:
		default:
			hdr.Append(e.Tag, e.Value)
		}
	}
	return &message.Message{
		BeginString: s.cfg.BeginString,
		MsgType:     msg.MsgType,
		Header:      hdr,
		Body:        msg.Body,
	}
}

func (s *Session) sendReject(ctx context.Context, sch *tagvalue.SchemaError) error {
	s.met.Rejects.WithLabelValues(s.cfg.SessionID()).Inc()
	s.log.Warn("rejecting message",
		zap.Int("reason", int(sch.Reason)),
		zap.Int("tag", sch.Tag),
		zap.String("msg_type", sch.MsgType))
	m := message.New(s.cfg.BeginString, dict.MsgTypeReject)
	// The offending frame never parsed far enough to trust its sequence
	// number, so the reject references the slot it would have filled.
	m.Body.Append(dict.TagRefSeqNum, field.Int(int64(s.nextIn)))
	if sch.Tag > 0 {
		m.Body.Append(dict.TagRefTagID, field.Int(int64(sch.Tag)))
	}
	if sch.MsgType != "" {
		m.Body.Append(dict.TagRefMsgType, field.String(sch.MsgType))
	}
	m.Body.Append(dict.TagSessionRejectReason, field.Int(int64(sch.Reason)))
	m.Body.Append(dict.TagText, field.String(sch.Detail))
	return s.sendMsg(ctx, m)
}

func (s *Session) setStatus(st Status, reason string) {
	s.mu.Lock()
	prev := s.status
	s.status = st
	s.mu.Unlock()
	if prev == st {
		return
	}
	ev := Event{Status: st, Reason: reason, Time: time.Now()}
	select {
	case s.events <- ev:
	default:
		s.log.Warn("event stream full, dropping event", zap.String("status", st.String()))
	}
}

func (s *Session) teardown(cause error) {
	if s.Status() != Disconnected {
		reason := "session ended"
		if cause != nil {
			reason = cause.Error()
		}
		s.setStatus(Disconnected, reason)
	}
	close(s.done)
	if s.activeMark {
		s.activeMark = false
		s.met.ActiveSessions.Dec()
	}
	reason := "clean"
	if cause != nil && !errors.Is(cause, context.Canceled) {
		reason = "error"
	}
	s.met.Disconnects.WithLabelValues(s.cfg.SessionID(), reason).Inc()
	_ = s.tr.Close()
	s.log.Info("session ended", zap.String("conn", s.connID), zap.Error(cause))
}

// Admin message builders. Headers are stamped at send time.

func (s *Session) logonMsg() *message.Message {
	m := message.New(s.cfg.BeginString, dict.MsgTypeLogon)
	m.Body.Append(dict.TagEncryptMethod, field.Int(0))
	m.Body.Append(dict.TagHeartBtInt, field.Int(int64(s.hbInt/time.Second)))
	if s.cfg.ResetOnLogon {
		m.Body.Append(dict.TagResetSeqNumFlag, field.Bool(true))
	}
	return m
}

func (s *Session) logoutMsg(text string) *message.Message {
	m := message.New(s.cfg.BeginString, dict.MsgTypeLogout)
	if text != "" {
		m.Body.Append(dict.TagText, field.String(text))
	}
	return m
}

func (s *Session) heartbeatMsg(testReqID field.Value) *message.Message {
	m := message.New(s.cfg.BeginString, dict.MsgTypeHeartbeat)
	if !testReqID.IsZero() {
		m.Body.Append(dict.TagTestReqID, testReqID)
	}
	return m
}

func (s *Session) testRequestMsg(id string) *message.Message {
	m := message.New(s.cfg.BeginString, dict.MsgTypeTestRequest)
	m.Body.Append(dict.TagTestReqID, field.String(id))
	return m
}

func (s *Session) resendRequestMsg(from, to uint64) *message.Message {
	m := message.New(s.cfg.BeginString, dict.MsgTypeResendRequest)
	m.Body.Append(dict.TagBeginSeqNo, field.Int(int64(from)))
	m.Body.Append(dict.TagEndSeqNo, field.Int(int64(to)))
	return m
}

// gapFillMsg builds a SequenceReset-GapFill covering [seq, next). It carries
// the first skipped sequence number itself and PossDup, since it stands in
// for previously assigned numbers.
func (s *Session) gapFillMsg(seq, next uint64) *message.Message {
	m := message.New(s.cfg.BeginString, dict.MsgTypeSequenceReset)
	m.Header.Append(dict.TagSenderCompID, field.String(s.cfg.SenderCompID))
	m.Header.Append(dict.TagTargetCompID, field.String(s.cfg.TargetCompID))
	m.Header.Append(dict.TagMsgSeqNum, field.Int(int64(seq)))
	m.Header.Append(dict.TagPossDupFlag, field.Bool(true))
	m.Header.Append(dict.TagSendingTime, field.UTCTimestamp(time.Now(), field.PrecisionMillis))
	m.Body.Append(dict.TagGapFillFlag, field.Bool(true))
	m.Body.Append(dict.TagNewSeqNo, field.Int(int64(next)))
	return m
}

// resendCopy rebuilds a stored business message for retransmission: same
// sequence number and body, PossDupFlag set, the original sending time moved
// to OrigSendingTime.
func resendCopy(orig *message.Message, now time.Time) *message.Message {
	hdr := message.NewFieldList()
	var origSending field.Value
	for i := 0; i < orig.Header.Len(); i++ {
		e := orig.Header.EntryAt(i)
		switch e.Tag {
		case dict.TagSendingTime:
			origSending = e.Value
		case dict.TagPossDupFlag, dict.TagOrigSendingTime:
		default:
			hdr.Append(e.Tag, e.Value)
		}
	}
	hdr.Append(dict.TagPossDupFlag, field.Bool(true))
	hdr.Append(dict.TagSendingTime, field.UTCTimestamp(now, field.PrecisionMillis))
	if !origSending.IsZero() {
		hdr.Append(dict.TagOrigSendingTime, origSending)
	}
	return &message.Message{
		BeginString: orig.BeginString,
		MsgType:     orig.MsgType,
		Header:      hdr,
		Body:        orig.Body,
	}
}
