package nimbus

import "github.com/zoobzio/capitan"

// Signals for observability events. These are fire-and-forget and carry no
// mutable state; the synchronous client hook contract lives in Hooks.
const (
	CallStarted   = capitan.Signal("sdk.call.started")
	CallCompleted = capitan.Signal("sdk.call.completed")
	CallFailed    = capitan.Signal("sdk.call.failed")
	ClientCreated = capitan.Signal("sdk.client.created")
	PageFetched   = capitan.Signal("sdk.page.fetched")
	SessionOpened = capitan.Signal("sdk.session.opened")
	SessionClosed = capitan.Signal("sdk.session.closed")
)

// Keys for observability event fields.
var (
	// Call identification.
	ServiceKey   = capitan.NewStringKey("sdk.service")
	OperationKey = capitan.NewStringKey("sdk.operation")
	RequestIDKey = capitan.NewStringKey("sdk.request.id")
	RegionKey    = capitan.NewStringKey("sdk.region")
	ProtocolKey  = capitan.NewStringKey("sdk.protocol")

	// Endpoint information.
	EndpointURLKey = capitan.NewStringKey("sdk.endpoint.url")
	UserAgentKey   = capitan.NewStringKey("sdk.user.agent")

	// Response metadata.
	HTTPStatusCodeKey  = capitan.NewIntKey("sdk.http.status.code")
	ServerRequestIDKey = capitan.NewStringKey("sdk.server.request.id")
	DurationMsKey      = capitan.NewIntKey("sdk.duration.ms")

	// Error information.
	ErrorKey     = capitan.NewStringKey("sdk.error")
	ErrorCodeKey = capitan.NewStringKey("sdk.error.code")

	// Pagination progress.
	PageNumberKey = capitan.NewIntKey("sdk.page.number")
	PageTokenKey  = capitan.NewStringKey("sdk.page.token")
)
