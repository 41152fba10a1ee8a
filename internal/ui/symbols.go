package ui

// Unicode symbols for per-firewall status indicators.
const (
	SymbolSuccess  = "✓" // Query completed
	SymbolFail     = "✗" // Query failed
	SymbolPending  = "○" // Not yet queried
	SymbolProgress = "◐" // Query in flight
	SymbolSkipped  = "⊘" // Firewall disabled or filtered out
)
