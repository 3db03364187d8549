package events

// Topic constants for domain events emitted by the widget backend.
const (
	TopicDocumentRegistered = "document.registered"
	TopicDocumentRemoved    = "document.removed"
	TopicOptionsUpdated     = "document.options_updated"
	TopicCheckoutRequested  = "checkout.requested"
	TopicPaymentConfirmed   = "payment.confirmed"
	TopicPaymentCancelled   = "payment.cancelled"
)
