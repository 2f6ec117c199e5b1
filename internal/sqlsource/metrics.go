package sqlsource

import (
	"github.com/uber-go/tally/v4"
)

// Metrics tracks SqlDataSource operations, tagged by outcome.
type Metrics struct {
	RecordCreate     tally.Counter
	RecordCreateFail tally.Counter

	RecordRetrieve      tally.Counter
	RecordRetrieveFail  tally.Counter
	RecordRetrieveEmpty tally.Counter

	RecordsReturned tally.Counter

	CreateLatency   tally.Timer
	RetrieveLatency tally.Timer
}

// NewMetrics returns Metrics rooted at the given scope.
func NewMetrics(scope tally.Scope) Metrics {
	recordScope := scope.SubScope("record")
	successScope := recordScope.Tagged(map[string]string{"type": "success"})
	failScope := recordScope.Tagged(map[string]string{"type": "fail"})
	emptyScope := recordScope.Tagged(map[string]string{"type": "empty"})

	return Metrics{
		RecordCreate:     successScope.Counter("create"),
		RecordCreateFail: failScope.Counter("create"),

		RecordRetrieve:      successScope.Counter("retrieve"),
		RecordRetrieveFail:  failScope.Counter("retrieve"),
		RecordRetrieveEmpty: emptyScope.Counter("retrieve"),

		RecordsReturned: recordScope.Counter("returned"),

		CreateLatency:   recordScope.Timer("create_latency"),
		RetrieveLatency: recordScope.Timer("retrieve_latency"),
	}
}
