package scheduler

type RescheduleResult struct {
	Total     int `json:"total"`
	Scheduled int `json:"scheduled"`
	Failed    int `json:"failed"`
}
