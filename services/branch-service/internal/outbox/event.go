package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (one topic per event type).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const EventScheduleUpdated = "branch.schedule.updated.v1"
