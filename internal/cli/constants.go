package cli

// Default values for CLI output.
const (
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2

	// metricsNamespace prefixes every metric written by --metrics-file.
	metricsNamespace = "phablet"
)
