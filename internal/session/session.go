// Package session binds one correlator and one dispatcher to one debugging
// target, and routes inbound frames between them.
package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"cdpclient/internal/catalog"
	"cdpclient/internal/cdp"
	"cdpclient/internal/codec"
	"cdpclient/internal/correlator"
	"cdpclient/internal/dispatch"
	"cdpclient/internal/transport"
)

// Session is one correlation + dispatch context bound to one target. Its
// correlator and dispatcher are owned exclusively; nothing here is shared
// across sessions except the read-only catalog.
type Session struct {
	targetID   string
	catalog    *catalog.Catalog
	correlator *correlator.Correlator
	dispatcher *dispatch.Dispatcher
	transport  transport.Transport
	createdAt  time.Time
}

func newSession(targetID string, cat *catalog.Catalog, tr transport.Transport, dedupCap int) *Session {
	return &Session{
		targetID:   targetID,
		catalog:    cat,
		correlator: correlator.New(),
		dispatcher: dispatch.New(dedupCap),
		transport:  tr,
		createdAt:  time.Now(),
	}
}

func (s *Session) TargetID() string {
	return s.targetID
}

// Send issues domain.method with args and suspends until the matching
// response arrives, the session closes, or ctx is done. Schema errors fail
// fast before anything is sent; remote errors and connection-closed
// rejections come back as discriminable error kinds.
func (s *Session) Send(ctx context.Context, domain, method string, args map[string]interface{}) (map[string]interface{}, error) {
	msg, returns, err := codec.Encode(s.catalog, domain, method, args)
	if err != nil {
		return nil, err
	}

	p, err := s.correlator.Next(returns)
	if err != nil {
		return nil, err
	}
	msg.ID = p.ID()

	if err := s.transport.Send(msg); err != nil {
		p.Cancel()
		return nil, err
	}

	raw, err := p.Wait(ctx)
	if err != nil {
		return nil, err
	}

	return codec.DecodeResult(s.catalog, p.Returns(), raw)
}

// On subscribes a listener to the named event type ("Domain.eventName", or
// dispatch.Wildcard for all).
func (s *Session) On(eventName string, fn dispatch.Listener) dispatch.SubscriptionID {
	return s.dispatcher.Register(eventName, fn)
}

func (s *Session) Off(id dispatch.SubscriptionID) {
	s.dispatcher.Unregister(id)
}

// HandleFrame classifies one inbound frame and hands it to the correlator
// (response) or the dispatcher (event). It runs on the frame stream in
// arrival order, never blocks on a waiting caller, and never panics the
// loop: anomalies are logged and dropped.
func (s *Session) HandleFrame(msg *cdp.Message) {
	switch {
	case msg.IsResponse():
		s.handleResponse(msg)
	case msg.IsEvent():
		s.handleEvent(msg)
	default:
		log.Warn().Str("target", s.targetID).Msg("dropping frame that is neither response nor event")
	}
}

func (s *Session) handleResponse(msg *cdp.Message) {
	var err error
	if msg.Error != nil {
		err = s.correlator.Reject(msg.ID, msg.Error)
	} else {
		var raw map[string]interface{}
		raw, err = msg.ResultMap()
		if err != nil {
			log.Warn().Err(err).Int64("id", msg.ID).Str("target", s.targetID).Msg("dropping response with malformed result")
			return
		}
		err = s.correlator.Resolve(msg.ID, raw)
	}

	if err != nil {
		log.Warn().Err(err).Int64("id", msg.ID).Str("target", s.targetID).Msg("dropping unmatched response frame")
	}
}

func (s *Session) handleEvent(msg *cdp.Message) {
	ev, ok := s.catalog.Event(msg.Method)
	if !ok {
		// The remote may emit event types the catalog predates.
		log.Debug().Str("event", msg.Method).Str("target", s.targetID).Msg("ignoring event unknown to catalog")
		return
	}

	occ, err := codec.DecodeEvent(s.catalog, ev, msg.Params)
	if err != nil {
		log.Warn().Err(err).Str("event", msg.Method).Str("target", s.targetID).Msg("dropping malformed event frame")
		return
	}

	if err := s.dispatcher.Dispatch(occ); err != nil {
		log.Error().Err(err).Str("event", msg.Method).Str("target", s.targetID).Msg("event listener failure")
	}
}

// PendingCount reports how many commands are awaiting a response.
func (s *Session) PendingCount() int {
	return s.correlator.PendingCount()
}

// close abandons all pending requests and discards dispatch state. The
// registry drops the session afterwards, which retires the dedup set with
// it.
func (s *Session) close() {
	s.correlator.CloseAll()
	if s.transport != nil {
		if err := s.transport.Close(); err != nil {
			log.Warn().Err(err).Str("target", s.targetID).Msg("error closing transport")
		}
	}
}
