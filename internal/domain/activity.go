package domain

import "time"

// ActivityAction names what a caller did.
type ActivityAction string

const (
	ActivitySearch        ActivityAction = "search"
	ActivityFetchMetadata ActivityAction = "fetch_metadata"
	ActivityFetchError    ActivityAction = "fetch_error"
	ActivityImportList    ActivityAction = "import_list"
	ActivityImportError   ActivityAction = "import_error"
	ActivityCreateList    ActivityAction = "create_list"
	ActivityCustomFields  ActivityAction = "custom_fields"
	ActivityAdmin         ActivityAction = "admin"
)

// Activity is one entry of the append-only activity log.
// DeviceToken and Country are anonymized attributions of the caller.
type Activity struct {
	ID          string         `json:"id"`
	Action      ActivityAction `json:"action"`
	Target      string         `json:"target"`
	Details     string         `json:"details,omitempty"`
	DeviceToken string         `json:"device_token"`
	Country     string         `json:"country"`
	DurationMs  int64          `json:"duration_ms"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Caller carries the anonymized attribution of an inbound request.
type Caller struct {
	DeviceToken string
	Country     string
}

// StatStatus is the outcome of a single provider call.
type StatStatus string

const (
	StatSuccess StatStatus = "success"
	StatError   StatStatus = "error"
)

// ProviderStat records one provider call made during a fan-out.
type ProviderStat struct {
	RequestID   string     `json:"request_id"`
	Provider    string     `json:"provider"`
	Timestamp   time.Time  `json:"timestamp"`
	DurationMs  int64      `json:"duration_ms"`
	ResultCount int        `json:"result_count"`
	Status      StatStatus `json:"status"`
}

// ProviderSummary aggregates ProviderStat rows for one provider.
type ProviderSummary struct {
	Provider      string  `json:"provider"`
	Calls         int     `json:"calls"`
	Errors        int     `json:"errors"`
	ErrorRate     float64 `json:"error_rate"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
	AvgResults    float64 `json:"avg_results"`
}
