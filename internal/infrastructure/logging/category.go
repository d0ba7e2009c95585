package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	IO              Category = "IO"
	Internal        Category = "Internal"
	Redis           Category = "Redis"
	RabbitMQ        Category = "RabbitMQ"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
	Prometheus      Category = "Prometheus"
	WebSocket       Category = "WebSocket"
	Auth            Category = "Auth"
	Backplane       Category = "Backplane"
	Dispatcher      Category = "Dispatcher"
)

const (
	// General
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	RateLimiting    SubCategory = "RateLimiting"
	ExternalService SubCategory = "ExternalService"

	// Auth
	LoadKey      SubCategory = "LoadKey"
	VerifyToken  SubCategory = "VerifyToken"
	Unauthorized SubCategory = "Unauthorized"

	// WebSocket
	Connect    SubCategory = "Connect"
	Disconnect SubCategory = "Disconnect"
	Join       SubCategory = "Join"
	Leave      SubCategory = "Leave"
	SlowClient SubCategory = "SlowClient"

	// RabbitMQ / Backplane / Dispatcher
	Consume   SubCategory = "Consume"
	Publish   SubCategory = "Publish"
	Subscribe SubCategory = "Subscribe"
	Reconnect SubCategory = "Reconnect"
	Parse     SubCategory = "Parse"
	Broadcast SubCategory = "Broadcast"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	ClientIp     ExtraKey = "ClientIp"
	HostIp       ExtraKey = "HostIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	BodySize     ExtraKey = "BodySize"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	RequestBody  ExtraKey = "RequestBody"
	ResponseBody ExtraKey = "ResponseBody"
	ErrorMessage ExtraKey = "ErrorMessage"
	ClientID     ExtraKey = "ClientId"
	Subject      ExtraKey = "Subject"
	Room         ExtraKey = "Room"
	Rooms        ExtraKey = "Rooms"
	Event        ExtraKey = "Event"
	MessageID    ExtraKey = "MessageId"
	Exchange     ExtraKey = "Exchange"
	Queue        ExtraKey = "Queue"
	InstanceID   ExtraKey = "InstanceId"
	Recipients   ExtraKey = "Recipients"
	Policy       ExtraKey = "Policy"
	Attempt      ExtraKey = "Attempt"
	RetryIn      ExtraKey = "RetryIn"
	Reason       ExtraKey = "Reason"
)
