package grading

// Label is the four-bucket performance label derived from the score.
type Label string

const (
	LabelFail      Label = "fail"
	LabelAverage   Label = "average"
	LabelPass      Label = "pass"
	LabelExcellent Label = "excellent"
)

// LabelFor maps a 0–10 score to its label:
// below 5 fail, 5 average, 6 and 7 pass, 8 and above excellent.
func LabelFor(score int) Label {
	switch {
	case score >= 8:
		return LabelExcellent
	case score >= 6:
		return LabelPass
	case score >= 5:
		return LabelAverage
	default:
		return LabelFail
	}
}

// SeverityFor ranks an error percentage.
func SeverityFor(percentage int) Severity {
	switch {
	case percentage >= 70:
		return SeverityHigh
	case percentage >= 40:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
