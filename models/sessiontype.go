package models

// SessionType describes one entry of the fixed booking catalog. Price is
// derived from the mentor's hourly rate at booking time, not stored here.
type SessionType struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	Duration          int    `json:"duration"` // minutes
	CommunicationType string `json:"communicationType"`
}

// SessionTypeCatalog is the fixed set of bookable session types.
var SessionTypeCatalog = []SessionType{
	{ID: "1on1", Title: "1-on-1 Mentoring Call", Description: "A focused one-on-one video session", Duration: 60, CommunicationType: CommunicationVideoCall},
	{ID: "async", Title: "Async Text Consultation", Description: "A written consultation answered over chat", Duration: 30, CommunicationType: CommunicationChat},
	{ID: "group", Title: "Group Session", Description: "A group mentoring session", Duration: 90, CommunicationType: CommunicationVideoCall},
	{ID: "code-review", Title: "Code Review", Description: "A guided review of your code", Duration: 45, CommunicationType: CommunicationVideoCall},
}

// SessionTypeByID returns the catalog entry with the given id, or false
// when no such entry exists.
func SessionTypeByID(id string) (SessionType, bool) {
	for _, st := range SessionTypeCatalog {
		if st.ID == id {
			return st, true
		}
	}
	return SessionType{}, false
}

// Price returns the price of the session type for a mentor charging the
// given hourly rate.
func (st SessionType) Price(hourlyRate float64) float64 {
	return hourlyRate * float64(st.Duration) / 60
}
