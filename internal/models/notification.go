package models

// EmailEntry is one address of the notification roster. Addresses are unique
// by exact string match.
type EmailEntry struct {
	Address string `json:"direccion"`
}

// NotificationSummary is a notification run as listed by the backend.
type NotificationSummary struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Success       bool   `json:"success"`
	ExecutionDate string `json:"execution_date"`
}

// NotificationDetail adds the optional detail and content of a single run.
type NotificationDetail struct {
	NotificationSummary
	Detail      *string `json:"detail"`
	Content     *string `json:"content"`
	ContentText string  `json:"content_text,omitempty"`
}
