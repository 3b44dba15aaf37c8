package domain

var (
	MessageSuccessCheckNotifications = "notification check completed"
	MessageFailedCheckNotifications  = "failed to run notification check"
)

const (
	SkipReasonDisabled   = "disabled"
	SkipReasonPermission = "permission"
	SkipReasonBusy       = "busy"
)

type (
	PassReport struct {
		Skipped  string `json:"skipped,omitempty"`
		Products int    `json:"products"`
		Sent     int    `json:"sent"`
		Failed   int    `json:"failed"`
	}
)
