package constants

// NATS Subjects
const (
	// Traces Service
	SubjectTraceCreated = "trace.created"
)
