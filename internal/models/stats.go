package models

// Grouping modes for statistics
const (
	GroupBySentence = "sentence"
	GroupByUser     = "user"
	GroupByHour     = "hour"
)

// Metrics are the accuracy figures shared by every grouping
type Metrics struct {
	TotalAttempts int     `json:"total_attempts"`
	CorrectCount  int     `json:"correct_count"`
	AccuracyRate  float64 `json:"accuracy_rate"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// ComputeAccuracy fills AccuracyRate from the counts, leaving it 0 when there
// were no attempts
func (m *Metrics) ComputeAccuracy() {
	if m.TotalAttempts == 0 {
		m.AccuracyRate = 0
		return
	}
	m.AccuracyRate = float64(m.CorrectCount) / float64(m.TotalAttempts)
}

// SentenceStats are metrics for one target item
type SentenceStats struct {
	ID                 int64    `json:"id"`
	Content            string   `json:"content"`
	Type               string   `json:"type"`
	Level              string   `json:"level"`
	SetNumber          int      `json:"set_number"`
	ExpectedVariations []string `json:"expected_variations"`
	Metrics
	UserCount int `json:"user_count"`
}

// UserStats are metrics for one test subject
type UserStats struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	Metrics
}

// HourStats are metrics for one hour of the day (0-23, UTC)
type HourStats struct {
	Hour int `json:"hour"`
	Metrics
}
