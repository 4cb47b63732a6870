package constants

const (
	EnvDebug              = "SENTRIE_DEBUG"
	EnvOtelProtocol       = "SENTRIE_OTEL_PROTOCOL"
	EnvOtelTraceExecution = "SENTRIE_OTEL_TRACE_EXECUTION"
)
