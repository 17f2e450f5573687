package reports

// Status of a measured parameter relative to its reference range.
type Status string

const (
	StatusNormal     Status = "Normal"
	StatusLow        Status = "Low"
	StatusHigh       Status = "High"
	StatusBorderline Status = "Borderline"
	StatusConcerning Status = "Concerning"
)

// Statuses lists every Status in display order.
var Statuses = []Status{StatusNormal, StatusLow, StatusHigh, StatusBorderline, StatusConcerning}

// Category of a recommendation.
type Category string

const (
	CategoryDiet      Category = "Diet"
	CategoryLifestyle Category = "Lifestyle"
)

var Categories = []Category{CategoryDiet, CategoryLifestyle}

// RiskLevel of a predicted health risk.
type RiskLevel string

const (
	RiskHigh     RiskLevel = "High"
	RiskModerate RiskLevel = "Moderate"
	RiskLow      RiskLevel = "Low"
)

var RiskLevels = []RiskLevel{RiskHigh, RiskModerate, RiskLow}

// HealthParameter is one measured value extracted from a report.
type HealthParameter struct {
	Name           string `json:"name"`
	Value          string `json:"value"`
	Unit           string `json:"unit"`
	Status         Status `json:"status"`
	ReferenceRange string `json:"referenceRange"`
}

// ReportAnalysis is the model's reading of one submitted report.
// Parameters is a snapshot tied to the request that produced it; use Clone
// before handing it to code that may modify it.
type ReportAnalysis struct {
	ReportType     string            `json:"reportType"`
	Summary        string            `json:"summary"`
	Parameters     []HealthParameter `json:"parameters"`
	TimelineTrend  string            `json:"timelineTrend"`
	MostImproving  *string           `json:"mostImproving"`
	MostConcerning *string           `json:"mostConcerning"`
}

// Clone returns a deep copy.
func (a ReportAnalysis) Clone() ReportAnalysis {
	out := a
	if a.Parameters != nil {
		out.Parameters = make([]HealthParameter, len(a.Parameters))
		copy(out.Parameters, a.Parameters)
	}
	out.MostImproving = cloneString(a.MostImproving)
	out.MostConcerning = cloneString(a.MostConcerning)
	return out
}

// Recommendation is a diet or lifestyle suggestion for a health concern.
type Recommendation struct {
	Title      string   `json:"title"`
	Category   Category `json:"category"`
	Suggestion string   `json:"suggestion"`
	Reasoning  string   `json:"reasoning"`
}

// GovernmentScheme is a public health programme relevant to a condition.
type GovernmentScheme struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Eligibility     []string `json:"eligibility"`
	Benefits        []string `json:"benefits"`
	ApplicationLink string   `json:"applicationLink"`
}

// Clone returns a deep copy.
func (s GovernmentScheme) Clone() GovernmentScheme {
	out := s
	out.Eligibility = append([]string(nil), s.Eligibility...)
	out.Benefits = append([]string(nil), s.Benefits...)
	return out
}

// RiskPrediction is a potential future health risk derived from an analysis.
type RiskPrediction struct {
	RiskName                  string    `json:"riskName"`
	RiskLevel                 RiskLevel `json:"riskLevel"`
	Reasoning                 string    `json:"reasoning"`
	PreventiveRecommendations []string  `json:"preventiveRecommendations"`
	Alert                     string    `json:"alert"`
}

// Clone returns a deep copy.
func (r RiskPrediction) Clone() RiskPrediction {
	out := r
	out.PreventiveRecommendations = append([]string(nil), r.PreventiveRecommendations...)
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
