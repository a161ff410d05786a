package models

type BatchResult struct {
	Processed int      `json:"processed_count"`
	Total     int      `json:"total_count"`
	Errors    []string `json:"errors"`
	Outputs   []string `json:"outputs,omitempty"`
}
