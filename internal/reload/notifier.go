// Package reload tells a Browsersync server to refresh its browser tabs whenever content is saved.
//
// The notifier issues a single GET to http://{host}:{port}/__browser_sync__?method=reload
// for every save event that is neither a revision nor an autosave. The request is fire and
// forget: the call returns once the request is written, the response is read and discarded in
// the background and its status is not validated. Nothing is retried. The only error is a
// request that could not be dispatched at all (bad address, DNS or connect failure).
package reload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zach-adams/wp-browsersync-reload/internal/hook"
)

const (
	// HookName is the name the notifier registers under in the save dispatcher.
	HookName = "browsersync-reload"

	defaultTimeout = 5 * time.Second
)

// HTTPClient sends the reload request. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Notifier sends reload requests. It holds no configuration, every call gets the
// Config to use.
type Notifier struct {
	client HTTPClient
}

// New returns a Notifier sending through client, nil selects a default http.Client.
func New(client HTTPClient) *Notifier {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	return &Notifier{client: client}
}

// HandleSave reloads the browsers for ev unless it is a revision or an autosave.
func (n *Notifier) HandleSave(ctx context.Context, cfg Config, ev hook.SaveEvent) error {
	if ev.Derived() {
		requests.WithLabelValues(resultSkipped).Inc()
		log.Debug().
			Uint64("post_id", ev.PostID).
			Bool("revision", ev.Revision).
			Bool("autosave", ev.Autosave).
			Msg("skip browsersync reload for derived save")

		return nil
	}

	return n.Reload(ctx, cfg)
}

// Reload sends one reload request to the server described by cfg. It returns as soon as
// the request is written to the connection, the response is awaited and discarded in
// the background. Only errors before the request went out are returned.
func (n *Notifier) Reload(ctx context.Context, cfg Config) error {
	target := cfg.URL()

	wrote := make(chan error, 1)
	trace := &httptrace.ClientTrace{
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			select {
			case wrote <- info.Err:
			default:
			}
		},
	}

	// the request outlives this call, cancelling ctx must not abort it afterwards
	reqCtx := httptrace.WithClientTrace(context.WithoutCancel(ctx), trace)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return n.failed(target, err)
	}

	done := make(chan error, 1)

	go n.send(req, done)

	select {
	case err = <-wrote:
	case err = <-done:
		// Do finished first: a dial error, or a client that reports no trace events.
		if err != nil {
			select {
			case werr := <-wrote:
				err = werr
			default:
			}
		}
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil {
		return n.failed(target, err)
	}

	requests.WithLabelValues(resultSent).Inc()
	log.Debug().Str("url", target).Msg("browsersync reload sent")

	return nil
}

// send runs the request and drains the response. The outcome goes to done exactly once.
func (n *Notifier) send(req *http.Request, done chan<- error) {
	resp, err := n.client.Do(req)
	done <- err

	if err != nil {
		log.Debug().Err(err).Str("url", req.URL.String()).Msg("browsersync reload response not received")
		return
	}

	log.Debug().Str("url", req.URL.String()).Int("status", resp.StatusCode).Msg("browsersync reload answered")
	discard(resp.Body)
}

func (n *Notifier) failed(target string, err error) error {
	requests.WithLabelValues(resultFailed).Inc()
	log.Error().Err(err).Str("url", target).Msg("browsersync reload request failed")

	return &DispatchError{URL: target, Err: err}
}

// Attach registers the notifier in d bound to cfg when cfg is enabled and
// removes it otherwise. Calling it again replaces the previous registration.
func (n *Notifier) Attach(d *hook.Dispatcher, cfg Config) {
	if !cfg.Enabled {
		d.Remove(HookName)
		log.Info().Msg("browsersync reload disabled")

		return
	}

	d.Add(HookName, func(ctx context.Context, ev hook.SaveEvent) error {
		return n.HandleSave(ctx, cfg, ev)
	})

	log.Info().Str("url", cfg.URL()).Msg("browsersync reload enabled")
}

func discard(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
