package constants

// Redis key formats
const (
	// Traces Service
	KeyCellQuery    = "traces:cell:%s:%d" // Format: traces:cell:{prefix}:{limit}
	KeyGlobalSample = "traces:recent:%d"  // Format: traces:recent:{limit}
)
