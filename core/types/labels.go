package types

import "strings"

// Label is one element of a closed classification vocabulary.
type Label string

// Other is the sentinel the classifier resolves unknown tokens to.
// The label policy is closed-world: model output that does not match the
// configured set degrades to Other instead of raising.
const Other Label = "OTHER"

type LabelSet []Label

func (s LabelSet) Contains(l Label) bool {
	for _, known := range s {
		if known == l {
			return true
		}
	}
	return false
}

// Normalize maps a raw model token onto the set, falling back to Other.
func (s LabelSet) Normalize(token string) Label {
	l := Label(strings.ToUpper(strings.TrimSpace(token)))
	if s.Contains(l) {
		return l
	}
	return Other
}

func (s LabelSet) Strings() []string {
	out := make([]string, 0, len(s))
	for _, l := range s {
		out = append(out, string(l))
	}
	return out
}

// Request types produced by request routing.
const (
	RequestGeneral    Label = "GENERAL"
	RequestTechnical  Label = "TECHNICAL"
	RequestContextual Label = "CONTEXTUAL"
)

var RequestTypes = LabelSet{RequestGeneral, RequestTechnical, RequestContextual}

// Code modes produced by the code mode router. Mutually exclusive.
const (
	ModeCode          Label = "CODE"
	ModeVisualization Label = "VISUALIZATION"
)

var CodeModes = LabelSet{ModeCode, ModeVisualization}

// Exploratory analysis task vocabulary used by the subtask classifier.
const (
	TaskDistributionAnalysis Label = "DISTRIBUTION_ANALYSIS"
	TaskCorrelationAnalysis  Label = "CORRELATION_ANALYSIS"
	TaskMissingValues        Label = "MISSING_VALUES"
	TaskOutlierDetection     Label = "OUTLIER_DETECTION"
	TaskSummaryStatistics    Label = "SUMMARY_STATISTICS"
	TaskFeatureTypes         Label = "FEATURE_TYPES"
)

var EDATasks = LabelSet{
	TaskDistributionAnalysis,
	TaskCorrelationAnalysis,
	TaskMissingValues,
	TaskOutlierDetection,
	TaskSummaryStatistics,
	TaskFeatureTypes,
}
