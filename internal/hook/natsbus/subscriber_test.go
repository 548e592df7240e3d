package natsbus

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zach-adams/wp-browsersync-reload/internal/hook"
)

const testSubject = "cms.post.saved"

// startTestNATS starts an embedded NATS server and returns its client URL.
func startTestNATS(t *testing.T) string {
	t.Helper()

	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err, "starting embedded NATS")

	srv.Start()
	t.Cleanup(srv.Shutdown)

	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}

	return srv.ClientURL()
}

type recorder struct {
	mu     sync.Mutex
	events []hook.SaveEvent
	err    error
}

func (r *recorder) handle(_ context.Context, ev hook.SaveEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, ev)

	return r.err
}

func (r *recorder) received() []hook.SaveEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]hook.SaveEvent(nil), r.events...)
}

func setup(t *testing.T, rec *recorder) *nats.Conn {
	t.Helper()

	url := startTestNATS(t)

	d := hook.NewDispatcher()
	d.Add("recorder", rec.handle)

	sub, err := Subscribe(url, testSubject, d)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	pub, err := nats.Connect(url)
	require.NoError(t, err)
	t.Cleanup(pub.Close)

	return pub
}

func TestSubscriberDispatchesEvents(t *testing.T) {
	rec := &recorder{}
	pub := setup(t, rec)

	msg, err := pub.Request(testSubject, []byte(`{"post_id":42,"post_type":"page"}`), 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, ReplyOK, string(msg.Data))

	events := rec.received()
	require.Len(t, events, 1)
	assert.Equal(t, hook.SaveEvent{PostID: 42, PostType: "page"}, events[0])
}

func TestSubscriberPlainPublish(t *testing.T) {
	rec := &recorder{}
	pub := setup(t, rec)

	require.NoError(t, pub.Publish(testSubject, []byte(`{"post_id":1,"autosave":true}`)))
	require.NoError(t, pub.Flush())

	require.Eventually(t, func() bool {
		return len(rec.received()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, rec.received()[0].Autosave)
}

func TestSubscriberRejectsMalformed(t *testing.T) {
	rec := &recorder{}
	pub := setup(t, rec)

	for _, payload := range []string{`{"post_id":`, `{"post_type":"post"}`} {
		msg, err := pub.Request(testSubject, []byte(payload), 2*time.Second)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(msg.Data), errorReplyPrefix), string(msg.Data))
	}

	assert.Empty(t, rec.received())
}

func TestSubscriberReportsDispatchError(t *testing.T) {
	rec := &recorder{err: errors.New("browsersync down")} //nolint:goerr113
	pub := setup(t, rec)

	msg, err := pub.Request(testSubject, []byte(`{"post_id":5}`), 2*time.Second)
	require.NoError(t, err)
	assert.Contains(t, string(msg.Data), "browsersync down")
}

func TestSubscribeConnectError(t *testing.T) {
	_, err := Subscribe("nats://127.0.0.1:1", testSubject, hook.NewDispatcher(), nats.Timeout(200*time.Millisecond))
	require.Error(t, err)
}

func TestCloseDrainsRunningHandler(t *testing.T) {
	url := startTestNATS(t)

	started := make(chan struct{})
	release := make(chan struct{})

	var handled atomic.Bool

	d := hook.NewDispatcher()
	d.Add("slow", func(context.Context, hook.SaveEvent) error {
		close(started)
		<-release
		handled.Store(true)

		return nil
	})

	sub, err := Subscribe(url, testSubject, d)
	require.NoError(t, err)

	pub, err := nats.Connect(url)
	require.NoError(t, err)
	t.Cleanup(pub.Close)

	replies := make(chan string, 1)

	go func() {
		msg, rerr := pub.Request(testSubject, []byte(`{"post_id":11}`), 5*time.Second)
		if rerr != nil {
			replies <- rerr.Error()
			return
		}

		replies <- string(msg.Data)
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never started")
	}

	closed := make(chan error, 1)

	go func() { closed <- sub.Close() }()

	select {
	case <-closed:
		t.Fatal("Close returned while the handler was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)

	select {
	case err = <-closed:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return after the handler finished")
	}

	assert.True(t, handled.Load())
	assert.True(t, sub.conn.IsClosed())
	assert.Equal(t, ReplyOK, <-replies)

	// closing again is a no-op
	require.NoError(t, sub.Close())
}
