package reports

import "encoding/json"

// FormatDailyJSON renders a daily report as indented JSON.
func FormatDailyJSON(r *DailyReport) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FormatWeeklyJSON renders a weekly report as indented JSON.
func FormatWeeklyJSON(r *WeeklyReport) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
