package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"

	FieldUserID        = "user_id"
	FieldTransactionID = "transaction_id"
	FieldTemplateID    = "template_id"
	FieldKind          = "kind"
	FieldCategory      = "category"
	FieldAmount        = "amount"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentAuth      = "auth"
	ComponentLedger    = "ledger"
	ComponentRecurring = "recurring"
	ComponentAMQP      = "amqp"
	ComponentCache     = "cache"
)
