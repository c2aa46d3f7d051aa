package server

// Package-level request/response DTOs. These carry json tags and the
// NaN/Infinity-preserving Number type; the domain types in pkg/experiment
// stay free of transport concerns.

// MetricRequest is one entry of EvaluateRequest.Metrics.
type MetricRequest struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Nominator       string   `json:"nominator"`
	Denominator     string   `json:"denominator"`
	MinimumEffect   *float64 `json:"minimum_effect,omitempty"`
	Format          string   `json:"format,omitempty"`
	ValueMultiplier *float64 `json:"value_multiplier,omitempty"`
}

// CheckRequest is one entry of EvaluateRequest.Checks. Type defaults to
// "SRM" when empty.
type CheckRequest struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Type            string  `json:"type,omitempty"`
	Nominator       string  `json:"nominator,omitempty"`
	Denominator     string  `json:"denominator"`
	MaxRatio        float64 `json:"max_ratio,omitempty"`
	ConfidenceLevel float64 `json:"confidence_level,omitempty"`
}

// FilterRequest is one entry of EvaluateRequest.Filters.
type FilterRequest struct {
	Dimension string   `json:"dimension"`
	Values    []string `json:"value"`
	Scope     string   `json:"scope"`
}

// EvaluateRequest is the body of POST /evaluate.
type EvaluateRequest struct {
	ID              string                 `json:"id"`
	ControlVariant  string                 `json:"control_variant"`
	UnitType        string                 `json:"unit_type"`
	Variants        []string               `json:"variants,omitempty"`
	DateFrom        string                 `json:"date_from,omitempty"`
	DateTo          string                 `json:"date_to,omitempty"`
	DateFor         string                 `json:"date_for,omitempty"`
	ConfidenceLevel float64                `json:"confidence_level,omitempty"`
	Metrics         []MetricRequest        `json:"metrics"`
	Checks          []CheckRequest         `json:"checks,omitempty"`
	Filters         []FilterRequest        `json:"filters,omitempty"`
	QueryParameters map[string]interface{} `json:"query_parameters,omitempty"`
}

// MetricStatDTO is one variant's row in an evaluated metric's stats table.
type MetricStatDTO struct {
	ExpVariantID       string   `json:"exp_variant_id"`
	Diff               Number   `json:"diff"`
	Mean               Number   `json:"mean"`
	SumValue           Number   `json:"sum_value"`
	PValue             Number   `json:"p_value"`
	ConfidenceInterval Number   `json:"confidence_interval"`
	ConfidenceLevel    Number   `json:"confidence_level"`
	SampleSize         Number   `json:"sample_size"`
	RequiredSampleSize Number   `json:"required_sample_size"`
	Power              Number   `json:"power"`
	StandardError      Number   `json:"standard_error"`
	TestStat           Number   `json:"test_stat"`
	DegreesOfFreedom   Number   `json:"degrees_of_freedom"`
	MinimumEffect      *float64 `json:"minimum_effect,omitempty"`
}

// MetricResultDTO is one metric's full stats table, plus the presentation
// hints the caller supplied in the request, echoed back for rendering.
type MetricResultDTO struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Format          string          `json:"format,omitempty"`
	ValueMultiplier float64         `json:"value_multiplier"`
	Stats           []MetricStatDTO `json:"stats"`
}

// CheckStatDTO is one named variable emitted by a check.
type CheckStatDTO struct {
	VariableID string `json:"variable_id"`
	Value      Number `json:"value"`
}

// CheckResultDTO is one check's emitted variables.
type CheckResultDTO struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Stats []CheckStatDTO `json:"stats"`
}

// ExposureStatDTO is one variant's exposure count.
type ExposureStatDTO struct {
	ExpVariantID string `json:"exp_variant_id"`
	Count        Number `json:"count"`
}

// ExposureResultDTO is the exposures table for one experiment.
type ExposureResultDTO struct {
	UnitType string            `json:"unit_type"`
	Stats    []ExposureStatDTO `json:"stats"`
}

// EvaluateResponse is the body of a successful POST /evaluate.
type EvaluateResponse struct {
	ID       string            `json:"id"`
	Metrics  []MetricResultDTO `json:"metrics"`
	Checks   []CheckResultDTO  `json:"checks"`
	Exposure ExposureResultDTO `json:"exposure"`
}

// SampleSizeRequest is the body of POST /sample-size-calculation. Std absent
// (nil) selects the Bernoulli convenience form; an explicit 0 does not.
type SampleSizeRequest struct {
	Alpha         float64  `json:"alpha"`
	Power         float64  `json:"power"`
	Variants      int      `json:"variants"`
	MeanControl   float64  `json:"mean_control"`
	Std           *float64 `json:"std,omitempty"`
	StdTreatment  *float64 `json:"std_treatment,omitempty"`
	MinimumEffect float64  `json:"minimum_effect"`
}

// SampleSizeResponse is the body of a successful POST /sample-size-calculation.
type SampleSizeResponse struct {
	SampleSizePerVariant Number `json:"sample_size_per_variant"`
}
