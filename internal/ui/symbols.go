package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "◉" // Check passed, call answered
	SymbolFail     = "✕" // Check or call failed
	SymbolPending  = "◇" // Not yet started, or idle
	SymbolProgress = "◆" // Connecting
	SymbolComplete = "●" // Linked
	SymbolSkipped  = "⊖" // Skipped
	SymbolWarning  = "⚠" // Alert
)
