package orders

// Order status transitions. Keep this the single source of truth; repositories
// enforce it again with conditional updates so concurrent writers cannot race
// past a stale read.
var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusConfirmed: true, StatusCanceled: true},
	StatusConfirmed:  {StatusProcessing: true, StatusCanceled: true},
	StatusProcessing: {StatusShipped: true},
	StatusShipped:    {StatusDelivered: true},
	StatusDelivered:  {StatusReturned: true},
	StatusCanceled:   {},
	StatusReturned:   {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// IsTerminal reports whether no further status transitions are possible.
func IsTerminal(s Status) bool {
	return len(validNext[s]) == 0
}

var validNextDelivery = map[DeliveryStatus]map[DeliveryStatus]bool{
	DeliveryNotShipped: {DeliveryInTransit: true},
	DeliveryInTransit:  {DeliveryDelivered: true},
	DeliveryDelivered:  {},
}

func CanTransitionDelivery(from, to DeliveryStatus) bool {
	return validNextDelivery[from][to]
}
