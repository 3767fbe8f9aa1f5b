package v1

import (
	"bufio"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
	"go.uber.org/fx"

	"github.com/pulsepoll/backend/internal/app/appconfig"
	"github.com/pulsepoll/backend/internal/pkg/observability"
	"github.com/pulsepoll/backend/internal/server/svr"
	"github.com/pulsepoll/backend/internal/service"
)

type LiveController struct {
	fx.In

	Config         *appconfig.Config
	SessionManager *service.SessionManager
	LiveService    *service.Live
}

func RegisterLive(v1 *svr.V1, c LiveController) {
	v1.Get("/sessions/:sessionId/live", c.Live)
}

// primeStream opens the diff subscription before reading the snapshot, so a
// diff published in-between sits buffered on the channel instead of being
// lost to the client.
func primeStream(
	subscribe func(chan *nats.Msg) (*nats.Subscription, error),
	snapshot func() ([]byte, error),
) (chan *nats.Msg, *nats.Subscription, []byte, error) {
	msgChan := make(chan *nats.Msg, 32)
	sub, err := subscribe(msgChan)
	if err != nil {
		return nil, nil, nil, err
	}
	data, err := snapshot()
	if err != nil {
		if uerr := sub.Unsubscribe(); uerr != nil {
			log.Warn().Err(uerr).Msg("failed to unsubscribe unprimed live stream")
		}
		return nil, nil, nil, err
	}
	return msgChan, sub, data, nil
}

// Live streams statistics updates for one session over SSE. The stream opens
// with a full snapshot event, then relays every diff broadcast until the
// client disconnects. Keep-alive comments are sent in-between updates.
func (c *LiveController) Live(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("sessionId")

	msgChan, sub, snapshot, err := primeStream(
		func(ch chan *nats.Msg) (*nats.Subscription, error) {
			return c.LiveService.Subscribe(sessionID, ch)
		},
		func() ([]byte, error) {
			view, err := c.SessionManager.Statistics(ctx.UserContext(), sessionID)
			if err != nil {
				return nil, err
			}
			return json.Marshal(view)
		},
	)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	heartbeatInterval := c.Config.LiveHeartbeatInterval

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer func() {
			if err := sub.Unsubscribe(); err != nil {
				log.Warn().Err(err).Str("sessionId", sessionID).Msg("failed to unsubscribe live stream")
			}
		}()

		observability.LiveSubscribers.Inc()
		defer observability.LiveSubscribers.Dec()

		fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", snapshot)
		if err := w.Flush(); err != nil {
			return
		}

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case msg, ok := <-msgChan:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: update\ndata: %s\n\n", msg.Data)
				if err := w.Flush(); err != nil {
					return
				}
			case <-heartbeat.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}
