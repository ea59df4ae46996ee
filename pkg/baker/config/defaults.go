package config

// Default scan settings.
const (
	// DefaultMaxDepth bounds folder recursion below the scan root.
	DefaultMaxDepth = 5

	// DefaultLogLevel is the log level when none is configured.
	DefaultLogLevel = "info"
)

// DefaultComponents holds per-component log level defaults.
var DefaultComponents = map[string]string{
	"scanner": "info",
	"batch":   "info",
	"watcher": "warn",
	"preview": "info",
}
