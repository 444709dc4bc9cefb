package apperror

const (
	// Session / auth
	CodeSessionExpired = "SESSION_EXPIRED"
	CodeAuthProvider   = "AUTH_PROVIDER_ERROR"

	// Transport
	CodeNetworkUnavailable = "NETWORK_UNAVAILABLE"
	CodeHTTPError          = "HTTP_ERROR"

	// Device
	CodeLocationUnavailable = "LOCATION_UNAVAILABLE"

	// Sync
	CodeQueryDegraded = "QUERY_DEGRADED"

	CodeInvalidInput = "INVALID_INPUT"
	CodeUnknown      = "UNKNOWN"
)
