package domain

// ReadingGoal holds the yearly and monthly book targets. A zero target
// means no goal is set for that horizon.
type ReadingGoal struct {
	Year          int `json:"year"`
	YearlyTarget  int `json:"yearly_target,omitempty"`
	MonthlyTarget int `json:"monthly_target,omitempty"`
}

// IsSet reports whether either target is configured.
func (g ReadingGoal) IsSet() bool {
	return g.YearlyTarget > 0 || g.MonthlyTarget > 0
}
