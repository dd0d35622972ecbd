package constants

const (
	// BatchStream is the JetStream stream holding BatchReady events.
	BatchStream = "PROSPECT_BATCHES"
	// BatchSubjectPrefix is followed by the campaign ID.
	BatchSubjectPrefix = "prospects.batch"
	// BatchSubjectWildcard matches the batches of every campaign.
	BatchSubjectWildcard = "prospects.batch.>"
	// SearchStartTopic starts a continuous search from a message.
	SearchStartTopic = "prospects.search.start"
	// SearchStopTopic stops a continuous search from a message.
	SearchStopTopic = "prospects.search.stop"
	// SearchWorkersQueue is the queue group for search control messages.
	SearchWorkersQueue = "search-workers"
)
