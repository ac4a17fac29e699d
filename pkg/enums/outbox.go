package enums

// OutboxEventType names the domain events emitted by the order ledger.
type OutboxEventType string

const (
	EventOrderCreated        OutboxEventType = "order_created"
	EventOrderStatusChanged  OutboxEventType = "order_status_changed"
	EventOrderPaymentChanged OutboxEventType = "order_payment_changed"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder OutboxAggregateType = "order"
)
