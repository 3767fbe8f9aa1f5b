package constant

const (
	CacheSep = "#"

	// RedisKeyProcessedRespondents is the redis set of respondent ids already applied
	// to a session's engine, suffixed with the session id.
	RedisKeyProcessedRespondents = "pulse:processed:"

	// RedisKeyRehydrateLock is the redsync mutex name guarding session rehydration,
	// suffixed with the session id.
	RedisKeyRehydrateLock = "pulse:lock:rehydrate:"
)
