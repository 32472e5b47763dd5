package timer

// Status is a display hint derived from the share of budget left.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Thresholds are percentages of the budget, so they scale with it.
const (
	criticalPercent = 5.0
	warningPercent  = 16.67
)

// StatusOf classifies remaining seconds against budget.
func StatusOf(remaining, budget int) Status {
	if budget <= 0 {
		return StatusCritical
	}
	percent := float64(remaining) / float64(budget) * 100
	switch {
	case percent <= criticalPercent:
		return StatusCritical
	case percent <= warningPercent:
		return StatusWarning
	}
	return StatusNormal
}
