package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/health-companion/internal/domain/ai"
	"github.com/bryanwahyu/health-companion/internal/domain/reports"
)

const reportInstruction = `Analyze the following medical report content from the provided text or file. Extract key parameters, provide a simple summary, and identify trends. The user is a patient, so explain in simple terms.`

// ReportAnalysis builds the prompt for a report. When the request carries a
// file the prompt is sent alongside it; otherwise the text is inlined.
func ReportAnalysis(req reports.AnalysisRequest) (string, *ai.Schema) {
	p := reportInstruction
	if req.File == nil {
		p = fmt.Sprintf("%s\n\nReport Content:\n%s", reportInstruction, req.Text)
	}
	return p, ReportAnalysisSchema()
}

// Recommendations builds the diet and lifestyle prompt for a set of concerns.
func Recommendations(concerns []string) (string, *ai.Schema) {
	p := fmt.Sprintf("Based on the following health concerns: %s, provide a list of personalized diet and lifestyle recommendations. "+
		"Focus on organic, natural options and include Indian dietary choices where relevant. "+
		"Explain the science behind each suggestion in a simple way.", strings.Join(concerns, ", "))
	return p, RecommendationsSchema()
}

// Schemes builds the government scheme lookup prompt.
func Schemes(condition string) (string, *ai.Schema) {
	p := fmt.Sprintf("Find relevant Indian government health schemes for a patient with the following condition: %s. "+
		"Provide details on eligibility, benefits, and how to apply.", condition)
	return p, SchemesSchema()
}

// RiskPrediction builds the risk prompt around a digest of the analysis.
func RiskPrediction(a reports.ReportAnalysis) (string, *ai.Schema) {
	concerning := "None"
	if a.MostConcerning != nil && *a.MostConcerning != "" {
		concerning = *a.MostConcerning
	}

	var b strings.Builder
	b.WriteString("Based on the following medical report analysis, predict potential future health risks. ")
	b.WriteString("For each identified risk, provide a risk level (High, Moderate, Low), the reasoning based on the data, ")
	b.WriteString("a list of specific preventive recommendations, and a concise alert for a potential doctor visit.\n\n")
	b.WriteString("Medical Report Analysis:\n")
	fmt.Fprintf(&b, "- Summary: %s\n", a.Summary)
	fmt.Fprintf(&b, "- Most Concerning Parameter: %s\n", concerning)
	fmt.Fprintf(&b, "- Timeline Trend: %s\n", a.TimelineTrend)
	fmt.Fprintf(&b, "- Key Parameters: %s\n", ParameterDigest(a.Parameters))
	return b.String(), RiskPredictionSchema()
}

// ParameterDigest renders parameters as "name: value unit (status)" joined by ", ".
func ParameterDigest(params []reports.HealthParameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%s: %s %s (%s)", p.Name, p.Value, p.Unit, p.Status)
	}
	return strings.Join(parts, ", ")
}
