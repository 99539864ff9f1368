package status

const (
	OK                    = "OK"
	CREATED               = "CREATED"
	BAD_REQUEST           = "BAD_REQUEST"
	UNAUTHORIZED          = "UNAUTHORIZED"
	FORBIDDEN             = "FORBIDDEN"
	NOT_FOUND             = "NOT_FOUND"
	CONFLICT              = "CONFLICT"
	UNPROCESSABLE_ENTITY  = "UNPROCESSABLE_ENTITY"
	INTERNAL_SERVER_ERROR = "INTERNAL_SERVER_ERROR"

	// fulfillment specific statuses
	OUT_OF_STOCK        = "OUT_OF_STOCK"
	STATE_CONFLICT      = "STATE_CONFLICT"
	INVALID_SIGNATURE   = "INVALID_SIGNATURE"
	GATEWAY_UNAVAILABLE = "GATEWAY_UNAVAILABLE"
)
