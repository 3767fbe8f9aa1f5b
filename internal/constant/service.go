package constant

const (
	// NatsStreamName is the JetStream work-queue stream holding poll traffic.
	NatsStreamName = "pulse-polls"

	// SubjectRespondentBatch is the subject respondent-answer batches are published on,
	// suffixed with the session id.
	SubjectRespondentBatch = "POLL.batch."

	// SubjectSessionLifecycle is the subject session lifecycle events are published on,
	// suffixed with the session id.
	SubjectSessionLifecycle = "POLL.session."

	// SubjectDeadLetter receives undecodable event payloads. Deliberately outside
	// the stream's POLL.batch/POLL.session bindings so dead letters never re-enter
	// the work queue.
	SubjectDeadLetter = "POLL.deadletter"

	// SubjectVisualizationUpdated is the core NATS subject diff broadcasts go out on,
	// suffixed with the session id.
	SubjectVisualizationUpdated = "visualization.updated."
)

const (
	SessionStatusOpen   = "open"
	SessionStatusClosed = "closed"
)

const (
	EventKindRespondentBatch = "respondents.batch"
	EventKindSessionOpen     = "session.open"
	EventKindSessionClose    = "session.close"
)

const (
	ContextKeyRequestID = "requestid"
)
