package services

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	"github.com/brookstone/whatsapp-bot/internal/models"
)

// Format check only; the calendar value is not validated.
var visitDatePattern = regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}[/-]\d{4}`)

// advanceBooking applies one message to the current booking step and returns
// the reply. Invalid input re-prompts without moving the step.
func (c *ConversationService) advanceBooking(ctx context.Context, t *turn) string {
	s := t.session
	b := &s.Booking

	switch b.Step {
	case models.StepName:
		if t.text == "" {
			return c.templates.AskName()
		}
		b.Name = t.text
		s.AdvanceBooking()
		return c.templates.ConfirmPhone(b.Name, b.Phone)

	case models.StepConfirmPhone:
		if t.lower != "yes" && t.lower != "1" {
			phone, ok := ExtractMobile(t.text)
			if !ok {
				return c.templates.InvalidBookingPhone()
			}
			b.Phone = phone
		}
		s.AdvanceBooking()
		return c.templates.AskDate()

	case models.StepDate:
		if !visitDatePattern.MatchString(t.text) {
			return c.templates.InvalidDate()
		}
		b.Date = t.text
		s.AdvanceBooking()
		return c.templates.AskTime()

	case models.StepTime:
		if slot, ok := TimeSlots[t.text]; ok {
			b.Time = slot
		} else {
			b.Time = t.text
		}
		s.AdvanceBooking()
		return c.templates.AskUnitType()

	case models.StepUnitType:
		unit, ok := UnitTypes[t.text]
		if !ok {
			return c.templates.InvalidUnitType()
		}
		b.UnitType = unit
		s.AdvanceBooking()
		return c.templates.AskBudget()

	case models.StepBudget:
		budget, ok := ExtractBudget(t.text)
		if !ok {
			return c.templates.InvalidBudget()
		}
		b.Budget = budget
		s.AdvanceBooking()
		s.AskedAboutBrochure = true

		c.logger.Info("guided booking completed",
			zap.String("phone", t.from),
			zap.String("date", b.Date),
			zap.String("time", b.Time),
			zap.String("unit_type", b.UnitType),
		)
		c.recordLead(ctx, &models.Lead{
			Phone:         t.from,
			ContactPhone:  b.Phone,
			Name:          b.Name,
			PreferredDate: b.Date,
			PreferredTime: b.Time,
			UnitType:      b.UnitType,
			Budget:        b.Budget,
			Source:        models.LeadSourceBookingFlow,
			Language:      string(s.Language),
		})
		return c.templates.FormRedirect()
	}

	// Unreachable while InBooking holds.
	return ""
}
