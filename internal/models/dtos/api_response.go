package dtos

// APIResponse is the envelope of the portal's own JSON endpoints.
type APIResponse struct {
	Status       string      `json:"status"`
	Message      string      `json:"message"`
	ResponseTime string      `json:"response_time"`
	Data         interface{} `json:"data,omitempty"`
}
