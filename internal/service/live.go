package service

import (
	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/pulsepoll/backend/internal/constant"
	"github.com/pulsepoll/backend/internal/stats"
)

// Live fans statistics diffs out to visualization subscribers over core NATS.
// Broadcasts are fire-and-forget: a missed diff is recovered by the next
// snapshot fetch.
type Live struct {
	Nats *nats.Conn
}

func NewLive(natsConn *nats.Conn) *Live {
	return &Live{
		Nats: natsConn,
	}
}

func (s *Live) PublishUpdate(sessionID string, result *stats.UpdateResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "failed to marshal update result")
	}
	return s.Nats.Publish(constant.SubjectVisualizationUpdated+sessionID, payload)
}

func (s *Live) Subscribe(sessionID string, ch chan *nats.Msg) (*nats.Subscription, error) {
	return s.Nats.ChanSubscribe(constant.SubjectVisualizationUpdated+sessionID, ch)
}
