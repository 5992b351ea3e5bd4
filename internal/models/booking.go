package models

// BookingStep is a position in the guided site-visit flow
type BookingStep string

const (
	StepUnset        BookingStep = ""
	StepName         BookingStep = "name"
	StepConfirmPhone BookingStep = "confirm_phone"
	StepDate         BookingStep = "date"
	StepTime         BookingStep = "time"
	StepUnitType     BookingStep = "unit_type"
	StepBudget       BookingStep = "budget"
	StepDone         BookingStep = "done"
)

var bookingSteps = []BookingStep{
	StepName,
	StepConfirmPhone,
	StepDate,
	StepTime,
	StepUnitType,
	StepBudget,
	StepDone,
}

func (s BookingStep) index() int {
	for i, step := range bookingSteps {
		if step == s {
			return i
		}
	}
	return -1
}

// Next returns the following step. Unset and done have no successor.
func (s BookingStep) Next() BookingStep {
	i := s.index()
	if i < 0 || s == StepDone {
		return s
	}
	return bookingSteps[i+1]
}

// Active reports whether the step still expects user input.
func (s BookingStep) Active() bool {
	return s.index() >= 0 && s != StepDone
}

// Before reports whether s comes earlier in the flow than other.
func (s BookingStep) Before(other BookingStep) bool {
	return s.index() < other.index()
}

// BookingInfo is the partially filled site-visit request collected by the guided flow
type BookingInfo struct {
	Step     BookingStep `json:"current_step"`
	Name     string      `json:"name,omitempty"`
	Phone    string      `json:"phone,omitempty"`
	Date     string      `json:"date,omitempty"`
	Time     string      `json:"time,omitempty"`
	UnitType string      `json:"unit_type,omitempty"`
	Budget   string      `json:"budget,omitempty"`
}

// IsEmpty reports whether nothing was ever collected.
func (b BookingInfo) IsEmpty() bool {
	return b == BookingInfo{}
}

// Site-visit ledger statuses.
const (
	VisitStatusNew                 = "New"
	VisitStatusConfirmed           = "Confirmed"
	VisitStatusConfirmedNoCalendar = "Confirmed (Calendar Failed)"
)

// SiteVisit is one row of the site-visit spreadsheet
type SiteVisit struct {
	Row           int    `json:"row"` // 1-based sheet row, header is row 1
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	PreferredDate string `json:"preferred_date"`
	PreferredTime string `json:"preferred_time"`
	UnitType      string `json:"unit_type"`
	Status        string `json:"status"`
}
