package models

// InterviewResult is the structured verdict the model emits inside the
// terminal <RESULT> tag.
type InterviewResult struct {
	AreaFungsi string  `json:"area_fungsi"`
	Level      int     `json:"level"`
	Status     *string `json:"status,omitempty"`
}

// WithStatus returns a copy of r carrying status.
func (r InterviewResult) WithStatus(status string) InterviewResult {
	r.Status = &status
	return r
}
