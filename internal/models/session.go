package models

import "time"

// LeadCaptureMode is the multi-step data-collection flow a session is inside, if any.
type LeadCaptureMode string

const (
	ModeNone             LeadCaptureMode = ""
	ModePhoneForBrochure LeadCaptureMode = "phone_for_brochure"
	ModeBooking          LeadCaptureMode = "booking"
)

// Language selects the localized knowledge-base bundle.
type Language string

const (
	LanguageEnglish  Language = "english"
	LanguageHindi    Language = "hindi"
	LanguageGujarati Language = "gujarati"
)

// ChatTurn is one entry of the conversation history.
type ChatTurn struct {
	Text     string `json:"text"`
	FromUser bool   `json:"from_user"`
}

// Session stores the in-memory conversation state for one WhatsApp number
type Session struct {
	Phone              string          `json:"phone"`
	UserPhone          string          `json:"user_phone"`
	Language           Language        `json:"language"`
	Mode               LeadCaptureMode `json:"lead_capture_mode"`
	AskedAboutBrochure bool            `json:"asked_about_brochure"`
	Booking            BookingInfo     `json:"booking_info"`
	History            []ChatTurn      `json:"chat_history"`

	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// NewSession creates the default state for a first-time sender.
func NewSession(phone string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		Phone:      phone,
		UserPhone:  phone,
		Language:   LanguageEnglish,
		CreatedAt:  now,
		LastActive: now,
		ExpiresAt:  now.Add(ttl),
	}
}

// AddTurn appends to the history.
func (s *Session) AddTurn(text string, fromUser bool) {
	s.History = append(s.History, ChatTurn{Text: text, FromUser: fromUser})
}

// RecentHistory returns at most the last n turns.
func (s *Session) RecentHistory(n int) []ChatTurn {
	if len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// Touch extends the idle deadline.
func (s *Session) Touch(now time.Time, ttl time.Duration) {
	s.LastActive = now
	s.ExpiresAt = now.Add(ttl)
}

// StartBooking enters the guided booking flow at its first step.
func (s *Session) StartBooking(phone string) {
	s.Mode = ModeBooking
	s.Booking = BookingInfo{Step: StepName, Phone: phone}
}

// AdvanceBooking moves the booking record one step forward. Reaching
// StepDone leaves booking mode.
func (s *Session) AdvanceBooking() {
	s.Booking.Step = s.Booking.Step.Next()
	if !s.Booking.Step.Active() {
		s.Mode = ModeNone
	}
}

// InBooking reports whether the session is inside the guided booking flow.
func (s *Session) InBooking() bool {
	return s.Mode == ModeBooking && s.Booking.Step.Active()
}
