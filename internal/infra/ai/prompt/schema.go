package prompt

import (
	"github.com/bryanwahyu/health-companion/internal/domain/ai"
	"github.com/bryanwahyu/health-companion/internal/domain/reports"
)

// Schemas are rebuilt on every call so callers never share a mutable tree.

func str(desc string) *ai.Schema {
	return &ai.Schema{Type: ai.TypeString, Description: desc}
}

func nullableStr(desc string) *ai.Schema {
	return &ai.Schema{Type: ai.TypeString, Description: desc, Nullable: true}
}

func enumStr[T ~string](desc string, values []T) *ai.Schema {
	enum := make([]string, len(values))
	for i, v := range values {
		enum[i] = string(v)
	}
	return &ai.Schema{Type: ai.TypeString, Description: desc, Enum: enum}
}

func strList(desc string) *ai.Schema {
	return &ai.Schema{Type: ai.TypeArray, Description: desc, Items: &ai.Schema{Type: ai.TypeString}}
}

func object(props map[string]*ai.Schema, required ...string) *ai.Schema {
	return &ai.Schema{Type: ai.TypeObject, Properties: props, Required: required}
}

// ReportAnalysisSchema describes reports.ReportAnalysis.
func ReportAnalysisSchema() *ai.Schema {
	parameter := object(map[string]*ai.Schema{
		"name":           str("Name of the parameter, e.g., Hemoglobin."),
		"value":          str("Measured value of the parameter."),
		"unit":           str("Unit of measurement, e.g., g/dL."),
		"status":         enumStr("Status of the value (Normal, Low, High, Borderline, Concerning).", reports.Statuses),
		"referenceRange": str("The normal reference range for this parameter."),
	}, "name", "value", "unit", "status", "referenceRange")

	return object(map[string]*ai.Schema{
		"reportType": str("Category of the report, e.g., Blood Test, Urine Test, Scan."),
		"summary":    str("A brief, easy-to-understand summary of the medical report findings for a patient."),
		"parameters": {
			Type:        ai.TypeArray,
			Description: "List of key medical parameters from the report.",
			Items:       parameter,
		},
		"timelineTrend":  str(`Analysis of trends over time if previous data is available. e.g., "Hemoglobin is dropping in the last 3 reports". If no past data, state that.`),
		"mostImproving":  nullableStr("The single most positive or improving health parameter. Null if not applicable."),
		"mostConcerning": nullableStr("The single most concerning health parameter that needs attention. Null if not applicable."),
	}, "reportType", "summary", "parameters", "timelineTrend", "mostImproving", "mostConcerning")
}

// RecommendationsSchema describes []reports.Recommendation.
func RecommendationsSchema() *ai.Schema {
	return &ai.Schema{
		Type: ai.TypeArray,
		Items: object(map[string]*ai.Schema{
			"title":      str(`Catchy title for the recommendation, e.g., "Boost Your Iron".`),
			"category":   enumStr("Category: Diet or Lifestyle.", reports.Categories),
			"suggestion": str("Specific, actionable suggestion. Include Indian dietary options where applicable."),
			"reasoning":  str("The scientific or medical reasoning behind the suggestion, explained simply."),
		}, "title", "category", "suggestion", "reasoning"),
	}
}

// SchemesSchema describes []reports.GovernmentScheme.
func SchemesSchema() *ai.Schema {
	return &ai.Schema{
		Type: ai.TypeArray,
		Items: object(map[string]*ai.Schema{
			"name":            str("Name of the Indian government health scheme."),
			"description":     str("Brief description of the scheme."),
			"eligibility":     strList("Key eligibility criteria."),
			"benefits":        strList("Key benefits provided by the scheme."),
			"applicationLink": str("Official link to apply or learn more."),
		}, "name", "description", "eligibility", "benefits", "applicationLink"),
	}
}

// RiskPredictionSchema describes []reports.RiskPrediction.
func RiskPredictionSchema() *ai.Schema {
	return &ai.Schema{
		Type: ai.TypeArray,
		Items: object(map[string]*ai.Schema{
			"riskName":                  str("Name of the potential health risk, e.g., 'Risk of Iron Deficiency Anemia'."),
			"riskLevel":                 enumStr("The assessed level of risk: High, Moderate, or Low.", reports.RiskLevels),
			"reasoning":                 str("Explanation for why this risk is predicted, based on the provided data."),
			"preventiveRecommendations": strList("A list of actionable preventive recommendations to mitigate this risk."),
			"alert":                     str("A clear alert message for the user, suggesting when to consult a doctor."),
		}, "riskName", "riskLevel", "reasoning", "preventiveRecommendations", "alert"),
	}
}
