package model

// AvailabilitySlot часовой слот, объявленный консультантом
type AvailabilitySlot struct {
	ID          int64  `json:"id"`
	CounselorID int64  `json:"counselorId"`
	Date        string `json:"availableDate"` // YYYY-MM-DD
	StartTime   string `json:"startTime"`     // HH:MM
}

// Availability то, что видит студент при выборе времени
type Availability struct {
	Available []AvailabilitySlot `json:"available"`
	Booked    []SessionSummary   `json:"booked"`
}
