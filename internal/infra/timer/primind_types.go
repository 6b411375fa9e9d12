package timer

type PrimindTaskRequest struct {
	Task PrimindTask `json:"task"`
}

type PrimindTask struct {
	Name         string             `json:"name,omitempty"`
	HTTPRequest  PrimindHTTPRequest `json:"httpRequest"`
	ScheduleTime string             `json:"scheduleTime,omitempty"`
}

type PrimindHTTPRequest struct {
	URL     string            `json:"url,omitempty"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers,omitempty"`
}

type PrimindTaskResponse struct {
	Name         string `json:"name"`
	ScheduleTime string `json:"scheduleTime"`
	CreateTime   string `json:"createTime"`
}
