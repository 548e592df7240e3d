// Package natsbus feeds save events published on a NATS subject into a hook.Dispatcher.
package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/zach-adams/wp-browsersync-reload/internal/hook"
)

const (
	// ReplyOK is sent to requesters whose event was dispatched without error.
	ReplyOK = "ok"

	errorReplyPrefix = "error: "
)

// Subscriber owns the NATS connection and the save-event subscription.
type Subscriber struct {
	conn       *nats.Conn
	sub        *nats.Subscription
	dispatcher *hook.Dispatcher
	closed     chan struct{}
}

// Subscribe connects to url and fires every JSON encoded hook.SaveEvent received on
// subject through d. Messages are handled one at a time in arrival order.
// Extra nats.Option values are appended to the defaults.
func Subscribe(url, subject string, d *hook.Dispatcher, opts ...nats.Option) (*Subscriber, error) {
	defaults := []nats.Option{
		nats.Name("bsreload"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}

	closed := make(chan struct{})

	// appended last so Close can always wait for it
	opts = append(append(defaults, opts...), nats.ClosedHandler(func(_ *nats.Conn) {
		close(closed)
	}))

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	s := &Subscriber{conn: nc, dispatcher: d, closed: closed}

	s.sub, err = nc.Subscribe(subject, s.handle)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", subject, err)
	}

	// make sure the server knows the subscription before we report ready
	if err = nc.Flush(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("flushing subscription: %w", err)
	}

	log.Info().Str("url", url).Str("subject", subject).Msg("listening for save events on nats")

	return s, nil
}

func (s *Subscriber) handle(msg *nats.Msg) {
	var ev hook.SaveEvent

	err := json.Unmarshal(msg.Data, &ev)
	if err == nil {
		err = ev.Validate()
	}

	if err != nil {
		log.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping malformed save event")
		s.reply(msg, err)

		return
	}

	err = s.dispatcher.Fire(context.Background(), ev)
	if err != nil {
		log.Error().Err(err).Uint64("post_id", ev.PostID).Msg("save event dispatch failed")
	}

	s.reply(msg, err)
}

// reply answers request style messages, plain publishes have no reply subject.
func (s *Subscriber) reply(msg *nats.Msg, err error) {
	if msg.Reply == "" {
		return
	}

	out := ReplyOK
	if err != nil {
		out = errorReplyPrefix + err.Error()
	}

	if rerr := msg.Respond([]byte(out)); rerr != nil {
		log.Warn().Err(rerr).Msg("can't answer save event request")
	}
}

// Close drains the subscription: no new events are taken, events already received are
// still dispatched and answered. It returns once the connection is closed.
func (s *Subscriber) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}

	if err := s.conn.Drain(); err != nil {
		if errors.Is(err, nats.ErrConnectionClosed) {
			return nil
		}

		return fmt.Errorf("draining nats connection: %w", err)
	}

	<-s.closed

	if err := s.conn.LastError(); errors.Is(err, nats.ErrDrainTimeout) {
		return fmt.Errorf("draining nats connection: %w", err)
	}

	return nil
}
