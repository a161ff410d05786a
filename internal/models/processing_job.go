package models

import "time"

// JobRequest is the body of POST /api/v1/jobs.
type JobRequest struct {
	InputDir           string    `json:"input_dir" binding:"required"`
	OutputDir          string    `json:"output_dir" binding:"required"`
	Kind               Kind      `json:"watermark_kind" binding:"required,oneof=image text"`
	SizeRatio          float64   `json:"size_ratio" binding:"min=0,max=1"`
	OpacityRatio       float64   `json:"opacity_ratio" binding:"min=0,max=1"`
	Placement          Placement `json:"placement" binding:"omitempty,oneof=bottom-right tile"`
	WatermarkImagePath string    `json:"watermark_image_path"`
	WatermarkImageURL  string    `json:"watermark_image_url" binding:"omitempty,url"`
	Text               *TextSpec `json:"text"`
}

// HasAsset reports whether an image job names its watermark image.
func (r *JobRequest) HasAsset() bool {
	return r.Kind != KindImage || r.WatermarkImagePath != "" || r.WatermarkImageURL != ""
}

func (r *JobRequest) Spec() JobSpec {
	return JobSpec{
		InputDir:           r.InputDir,
		OutputDir:          r.OutputDir,
		WatermarkImagePath: r.WatermarkImagePath,
		WatermarkImageURL:  r.WatermarkImageURL,
		Params: Params{
			Kind:         r.Kind,
			SizeRatio:    r.SizeRatio,
			OpacityRatio: r.OpacityRatio,
			Placement:    r.Placement,
			Text:         r.Text,
		},
	}
}

type ProcessingJob struct {
	ID        string       `json:"id"`
	Spec      JobSpec      `json:"spec"`
	Status    string       `json:"status"`
	Progress  string       `json:"progress,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Result    *BatchResult `json:"result,omitempty"`
	Error     string       `json:"error,omitempty"`
	// PublishedURLs are the public bucket URLs of the outputs, when
	// publishing is enabled.
	PublishedURLs []string `json:"published_urls,omitempty"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}
