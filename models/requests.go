package models

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserRequest struct {
	Active  *bool   `json:"active"`
	Blocked *bool   `json:"blocked"`
	Role    *string `json:"role"`
}

type PredictRequest struct {
	Image string `json:"image" binding:"required"`
}

type PredictBatchRequest struct {
	Images []string `json:"images" binding:"required"`
}

type PredictResponse struct {
	Success        bool               `json:"success"`
	Prediction     string             `json:"prediction"`
	Confidence     float64            `json:"confidence"`
	TopPredictions map[string]float64 `json:"top_predictions"`
	LatencyMs      float64            `json:"latency_ms"`
}

// BatchResult is one per-image outcome of a batch request. Prediction is nil
// and Error set when the item could not be processed.
type BatchResult struct {
	Prediction *string `json:"prediction"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

// PredictionFilters carries the raw query parameters of a log query.
// Values that fail to parse are ignored rather than rejected.
type PredictionFilters struct {
	Start         string
	End           string
	UserID        string
	Email         string
	Label         string
	MinConfidence string
	MaxConfidence string
	Success       string
	Page          string
	PageSize      string
}

type PredictionPage struct {
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Items    []PredictionLog `json:"items"`
}

type SummaryStats struct {
	TotalPredictions  int64    `json:"total_predictions"`
	AverageConfidence *float64 `json:"average_confidence"`
	AverageLatencyMs  *float64 `json:"average_latency_ms"`
	ActiveSessions    int64    `json:"active_sessions"`
	UsersCount        int64    `json:"users_count"`
}
