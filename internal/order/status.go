package order

// Status is the fulfilment lifecycle of an order.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
	// REFUNDED and RETURNED are administrative destinations; no customer
	// route moves an order there.
	StatusRefunded Status = "REFUNDED"
	StatusReturned Status = "RETURNED"
)

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "PENDING"
	PaymentProcessing        PaymentStatus = "PROCESSING"
	PaymentSucceeded         PaymentStatus = "SUCCEEDED"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

type ShippingStatus string

const (
	ShippingNotShipped     ShippingStatus = "NOT_SHIPPED"
	ShippingPreparing      ShippingStatus = "PREPARING"
	ShippingShipped        ShippingStatus = "SHIPPED"
	ShippingInTransit      ShippingStatus = "IN_TRANSIT"
	ShippingOutForDelivery ShippingStatus = "OUT_FOR_DELIVERY"
	ShippingDelivered      ShippingStatus = "DELIVERED"
	ShippingDeliveryFailed ShippingStatus = "DELIVERY_FAILED"
	ShippingReturned       ShippingStatus = "RETURNED"
)

var statusTransitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled, StatusRefunded},
	StatusProcessing: {StatusShipped, StatusRefunded},
	StatusShipped:    {StatusDelivered, StatusReturned},
	StatusDelivered:  {StatusReturned, StatusRefunded},
	StatusReturned:   {StatusRefunded},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:    {PaymentProcessing, PaymentSucceeded, PaymentFailed},
	PaymentProcessing: {PaymentSucceeded, PaymentFailed},
	// a failed payment can be retried against the same order
	PaymentFailed:            {PaymentProcessing, PaymentSucceeded},
	PaymentSucceeded:         {PaymentRefunded, PaymentPartiallyRefunded},
	PaymentPartiallyRefunded: {PaymentRefunded},
}

var shippingTransitions = map[ShippingStatus][]ShippingStatus{
	ShippingNotShipped:     {ShippingPreparing},
	ShippingPreparing:      {ShippingShipped},
	ShippingShipped:        {ShippingInTransit, ShippingDelivered},
	ShippingInTransit:      {ShippingOutForDelivery, ShippingDeliveryFailed, ShippingDelivered},
	ShippingOutForDelivery: {ShippingDelivered, ShippingDeliveryFailed},
	ShippingDeliveryFailed: {ShippingOutForDelivery, ShippingReturned},
}

func (s Status) CanTransition(to Status) bool {
	return contains(statusTransitions[s], to)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered,
		StatusCancelled, StatusRefunded, StatusReturned:
		return true
	}
	return false
}

func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	return contains(paymentTransitions[s], to)
}

func (s ShippingStatus) CanTransition(to ShippingStatus) bool {
	return contains(shippingTransitions[s], to)
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
