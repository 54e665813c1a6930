package service

import "github.com/vendor-payment-scheduler/internal/domain/schedule"

// PreviewServiceImpl implements the PreviewService interface
type PreviewServiceImpl struct{}

func NewPreviewService() PreviewService {
	return PreviewServiceImpl{}
}

// Preview projects up to maxResults occurrences of r. A maxResults below one
// yields schedule.DefaultPreviewResults dates.
func (PreviewServiceImpl) Preview(r schedule.Recurrence, maxResults int) *Preview {
	p := &Preview{Dates: schedule.ProjectOccurrences(r, maxResults)}
	if n, ok := schedule.EstimateOccurrenceCount(r); ok {
		p.EstimatedOccurrences = &n
	}
	return p
}
