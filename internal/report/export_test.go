package report

// Export unexported functions for external tests.
var (
	PadToWidth     = padToWidth
	ReasonWidthFor = reasonWidthFor
	DimBorders     = dimBorders
)
