package pollwkr

import (
	"context"
	"runtime"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/davecgh/go-spew/spew"
	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"github.com/pulsepoll/backend/internal/app/appconfig"
	"github.com/pulsepoll/backend/internal/constant"
	"github.com/pulsepoll/backend/internal/model/types"
	"github.com/pulsepoll/backend/internal/pkg/observability"
	"github.com/pulsepoll/backend/internal/pkg/pperr"
	"github.com/pulsepoll/backend/internal/repo"
	"github.com/pulsepoll/backend/internal/service"
)

type WorkerDeps struct {
	fx.In
	SessionManager       *service.SessionManager
	RespondentAnswerRepo *repo.RespondentAnswer
	NatsConn             *nats.Conn
	NatsJS               nats.JetStreamContext
}

type Worker struct {
	conf *appconfig.Config
	WorkerDeps
}

func Start(conf *appconfig.Config, deps WorkerDeps) {
	if !conf.WorkerEnabled {
		log.Info().Msg("worker: poll: worker is disabled due to configuration")
		return
	}
	(&Worker{conf: conf, WorkerDeps: deps}).Consume(context.Background())
}

func (w *Worker) Consume(ctx context.Context) {
	count := w.conf.WorkerCount
	if count <= 0 {
		count = runtime.NumCPU()
	}

	for i := 0; i < count; i++ {
		go func(workerID int) {
			msgChan := make(chan *nats.Msg, 16)

			for _, subject := range []string{
				constant.SubjectRespondentBatch + "*",
				constant.SubjectSessionLifecycle + "*",
			} {
				_, err := w.NatsJS.ChanQueueSubscribe(
					subject,
					constant.NatsStreamName,
					msgChan,
					nats.AckWait(w.conf.WorkerAckWait),
					nats.MaxAckPending(count*16),
				)
				if err != nil {
					log.Error().Err(err).
						Int("workerId", workerID).
						Str("subject", subject).
						Msg("worker: poll: failed to subscribe")
					return
				}
			}

			for {
				select {
				case msg := <-msgChan:
					w.consumeOnce(ctx, workerID, msg)
				case <-ctx.Done():
					log.Info().Int("workerId", workerID).Msg("worker: poll: worker stopped")
					return
				}
			}
		}(i)
	}
	log.Info().Int("workers", count).Msg("worker: poll: workers started")
}

func (w *Worker) consumeOnce(ctx context.Context, workerID int, msg *nats.Msg) {
	inprogressInformerCtx, cancelInprogressInformer := context.WithCancel(ctx)
	go w.inprogressInformer(inprogressInformerCtx, msg)
	defer cancelInprogressInformer()

	taskCtx, cancelTask := context.WithTimeout(ctx, w.conf.WorkerTimeout)
	defer cancelTask()

	start := time.Now()
	if meta, err := msg.Metadata(); err == nil {
		observability.BatchConsumeMessagingLatency.WithLabelValues().Observe(time.Since(meta.Timestamp).Seconds())
	}

	var envelope types.EventEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		w.deadLetter(msg, errors.Wrap(err, "failed to unmarshal event envelope"))
		return
	}
	if envelope.SessionID == "" || envelope.Kind == "" {
		w.deadLetter(msg, errors.New("event envelope misses kind or session id"))
		return
	}

	l := log.With().
		Int("workerId", workerID).
		Str("taskId", envelope.TaskID).
		Str("sessionId", envelope.SessionID).
		Str("kind", envelope.Kind).
		Logger()

	err := w.dispatch(taskCtx, &envelope)
	if err != nil {
		l.Error().Err(err).Msg("worker: poll: failed to process event")
		if w.conf.DevMode {
			spew.Dump(envelope)
		}

		// domain rejections never succeed on redelivery
		var pe *pperr.PulseError
		if errors.As(err, &pe) {
			w.deadLetter(msg, err)
			return
		}
		if nakErr := msg.Nak(); nakErr != nil {
			l.Error().Err(nakErr).Msg("worker: poll: failed to nak message")
		}
		return
	}

	observability.BatchConsumeDuration.WithLabelValues().Observe(time.Since(start).Seconds())
	if err := msg.Ack(); err != nil {
		l.Error().Err(err).Msg("worker: poll: failed to ack message")
	}
}

func (w *Worker) dispatch(ctx context.Context, envelope *types.EventEnvelope) error {
	switch envelope.Kind {
	case constant.EventKindRespondentBatch:
		var payload types.RespondentBatchPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return errors.Wrap(err, "failed to unmarshal respondent batch payload")
		}
		if len(payload.Respondents) == 0 {
			return errors.New("respondent batch payload is empty")
		}
		if err := w.RespondentAnswerRepo.BatchSaveAnswers(ctx, envelope.SessionID, payload.Respondents); err != nil {
			return errors.Wrap(err, "failed to persist respondent answers")
		}
		return retry.Do(func() error {
			_, err := w.SessionManager.ProcessBatch(ctx, envelope.SessionID, payload.Respondents)
			return err
		}, retry.Attempts(3), retry.Context(ctx), retry.LastErrorOnly(true))
	case constant.EventKindSessionOpen:
		var payload types.SessionOpenPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return errors.Wrap(err, "failed to unmarshal session open payload")
		}
		return w.SessionManager.HandleSessionOpen(ctx, envelope.SessionID, &payload)
	case constant.EventKindSessionClose:
		var payload types.SessionClosePayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return errors.Wrap(err, "failed to unmarshal session close payload")
		}
		return w.SessionManager.CloseSession(ctx, envelope.SessionID)
	default:
		return errors.Errorf("unknown event kind %q", envelope.Kind)
	}
}

// deadLetter routes an undecodable message off the work queue. The dead-letter
// subject is outside the stream's bindings so the message never re-enters the
// queue.
func (w *Worker) deadLetter(msg *nats.Msg, cause error) {
	log.Warn().Err(cause).Str("subject", msg.Subject).Msg("worker: poll: dead-lettering message")
	if err := w.NatsConn.Publish(constant.SubjectDeadLetter, msg.Data); err != nil {
		log.Error().Err(err).Msg("worker: poll: failed to publish dead letter")
	}
	if err := msg.Ack(); err != nil {
		log.Error().Err(err).Msg("worker: poll: failed to ack dead-lettered message")
	}
}

// inprogressInformer extends the ack deadline of a message while it is still
// being processed, so slow batches are not redelivered mid-flight.
func (w *Worker) inprogressInformer(ctx context.Context, msg *nats.Msg) {
	ticker := time.NewTicker(w.conf.WorkerAckWait / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := msg.InProgress(); err != nil {
				log.Warn().Err(err).Msg("worker: poll: failed to extend ack deadline")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
