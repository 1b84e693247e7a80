package nodes

import (
	"github.com/insightify-ai/insightify/core/types"
	"github.com/insightify-ai/insightify/services/classifier"
)

// RequestTypeExamples steer the request router.
var RequestTypeExamples = []classifier.Example{
	{Question: "What does this dataset contain?", Labels: []types.Label{types.RequestGeneral}},
	{Question: "Thanks, that makes sense!", Labels: []types.Label{types.RequestGeneral}},
	{Question: "Compute the correlation between age and income", Labels: []types.Label{types.RequestTechnical}},
	{Question: "Plot the distribution of ticket prices", Labels: []types.Label{types.RequestTechnical}},
	{Question: "Now do the same for the second column", Labels: []types.Label{types.RequestContextual}},
}

// CodeModeExamples steer the code mode router. Exactly one label applies.
var CodeModeExamples = []classifier.Example{
	{Question: "Plot a histogram of the age column", Labels: []types.Label{types.ModeVisualization}},
	{Question: "Draw a scatter plot of price versus size", Labels: []types.Label{types.ModeVisualization}},
	{Question: "Compute the mean and standard deviation", Labels: []types.Label{types.ModeCode}},
	{Question: "Count the missing values per column", Labels: []types.Label{types.ModeCode}},
}

// EDAExamples steer the analysis task classifier.
var EDAExamples = []classifier.Example{
	{Question: "Explore the range and distribution of features", Labels: []types.Label{types.TaskDistributionAnalysis}},
	{Question: "Which columns move together?", Labels: []types.Label{types.TaskCorrelationAnalysis}},
	{Question: "How many empty cells are there?", Labels: []types.Label{types.TaskMissingValues}},
	{Question: "Find unusual rows in the data", Labels: []types.Label{types.TaskOutlierDetection}},
	{Question: "Give me the basic statistics of each column", Labels: []types.Label{types.TaskSummaryStatistics}},
	{Question: "Which columns are numeric and which are categorical?", Labels: []types.Label{types.TaskFeatureTypes}},
}
