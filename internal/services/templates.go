package services

import (
	"fmt"

	"github.com/brookstone/whatsapp-bot/internal/models"
)

// Show-flat address used in confirmations and calendar events.
const (
	ShowFlatAddressLines = "Brookstone Show Flat\nB/S, Vaikunth Bungalows, Next to Oxygen Park\nDPS-Bopal Road, Shilaj, Ahmedabad - 380059"
	ShowFlatLocation     = "Brookstone Show Flat, B/S, Vaikunth Bungalows, Next to Oxygen Park, DPS-Bopal Road, Shilaj, Ahmedabad - 380059"
)

// TimeSlots maps slot numbers offered in the booking flow to their times.
var TimeSlots = map[string]string{
	"1": "10:00 AM",
	"2": "11:30 AM",
	"3": "02:00 PM",
	"4": "03:30 PM",
	"5": "05:00 PM",
}

// UnitTypes maps option numbers offered in the booking flow to unit types.
var UnitTypes = map[string]string{
	"1": "3 BHK",
	"2": "4 BHK",
	"3": "Both 3 & 4 BHK",
}

// Templates renders the bot's fixed reply texts.
type Templates struct {
	AgentPhone string
	FormURL    string
}

// NewTemplates creates the reply renderer.
func NewTemplates(agentPhone, formURL string) *Templates {
	return &Templates{AgentPhone: agentPhone, FormURL: formURL}
}

// GenAIFallbackMessage is returned when every generative attempt failed.
func GenAIFallbackMessage(agentPhone string) string {
	return fmt.Sprintf("Sorry, I'm having trouble answering right now. Please try again or contact our agent at %s.", agentPhone)
}

// GenAINotConfiguredMessage is returned when no API key is configured.
func GenAINotConfiguredMessage() string {
	return "⚠️ Please configure your Gemini API key"
}

func (t *Templates) BrochureToNumberFailed() string {
	return fmt.Sprintf(`I apologize, but there was an issue sending the brochure to your WhatsApp.

Please try again later or contact our agent directly at %s.`, t.AgentPhone)
}

func (t *Templates) InvalidBrochureNumber() string {
	return `I didn't find a valid phone number. Please share your *10-digit mobile number* to send the brochure.

For example: 9876543210 or +91 9876543210`
}

func (t *Templates) AskBrochureNumber() string {
	return `Sure! Please share the *10-digit mobile number* where you'd like to receive the brochure.

For example: 9876543210 or +91 9876543210`
}

func (t *Templates) BrochureFailed() string {
	return fmt.Sprintf(`I apologize, but there was an issue sending the brochure.

Please contact our agent at %s for assistance.`, t.AgentPhone)
}

func (t *Templates) BrochureRetryFailed() string {
	return fmt.Sprintf(`❌ There was an issue sending your brochure on WhatsApp.
Please contact our agent at %s.`, t.AgentPhone)
}

func (t *Templates) AgentContact() string {
	return fmt.Sprintf(`Great! You can reach our agent, Shatranj, directly on WhatsApp at:

📱 *WhatsApp Number:* %s

Our team will respond within 30 minutes during office hours (10 AM - 7 PM).

You can also call on the same number for a phone conversation.

Is there anything else about Brookstone I can help you with? 🏠`, t.AgentPhone)
}

func (t *Templates) BookingForm() string {
	return fmt.Sprintf(`🏠 *Book Your Site Visit to Brookstone*

To schedule your site visit, please click the link below and fill out a quick form:

📝 %s

The form will ask for:
• Your Name
• Contact Number
• Preferred Date & Time
• Unit Type Interest
• Budget Range

Once you submit the form, our team will confirm your appointment within 2 hours.

Need help with the form? Feel free to ask! 😊`, t.FormURL)
}

// AskName opens the guided booking flow.
func (t *Templates) AskName() string {
	return `🏠 *Book Your Site Visit to Brookstone*

Let's get your visit scheduled. May I have your *full name*?`
}

func (t *Templates) ConfirmPhone(name, phone string) string {
	return fmt.Sprintf(`Thank you, %s! 📝

I have your phone number as: *%s*
Is this the correct number for the site visit coordination?

Reply with:
1️⃣ *Yes* to confirm this number
2️⃣ Or type your *alternate number*`, name, phone)
}

func (t *Templates) InvalidBookingPhone() string {
	return `Please provide a valid 10-digit phone number or type *Yes* to confirm the existing number.

Example: 9876543210 or +91 9876543210`
}

func (t *Templates) AskDate() string {
	return `Great! Now, please tell me your *preferred date* for the site visit.

Format: DD/MM/YYYY
Example: 05/11/2025`
}

func (t *Templates) InvalidDate() string {
	return `Please provide the date in the correct format (DD/MM/YYYY).

Example: 05/11/2025`
}

func (t *Templates) AskTime() string {
	return `Perfect! Now, please select your *preferred time* for the site visit.

Available slots:
1️⃣ 10:00 AM
2️⃣ 11:30 AM
3️⃣ 02:00 PM
4️⃣ 03:30 PM
5️⃣ 05:00 PM

Reply with the slot number (1-5) or type the time.`
}

func (t *Templates) AskUnitType() string {
	return `Excellent! Which unit type are you interested in?

1️⃣ *3 BHK* (2650 sq ft)
2️⃣ *4 BHK* (3850 sq ft)
3️⃣ *Both options*

Please reply with 1, 2, or 3.`
}

func (t *Templates) InvalidUnitType() string {
	return `Please select a valid option:
1️⃣ for 3 BHK
2️⃣ for 4 BHK
3️⃣ for Both options`
}

func (t *Templates) AskBudget() string {
	return `Almost done! 🎯

What is your *approximate budget*?

Example formats:
• 1.5 Cr
• 2 Crore
• 150 Lakhs`
}

func (t *Templates) InvalidBudget() string {
	return `Please specify your budget in a clear format:
Example: 1.5 Cr, 2 Crore, or 150 Lakhs`
}

// FormRedirect closes the guided flow by pointing at the booking form.
func (t *Templates) FormRedirect() string {
	return fmt.Sprintf(`✅ To complete your booking, please fill out our site visit form:

📝 %s

Once you submit the form, you'll receive a confirmation message with all the details.

Need help with anything else? 😊`, t.FormURL)
}

// VisitConfirmation is sent by the confirmation poller for each new ledger row.
func (t *Templates) VisitConfirmation(visit models.SiteVisit) string {
	return fmt.Sprintf(`🎉 *Site Visit Booking Confirmed!*

Dear %s,

Your site visit to Brookstone has been scheduled:
📅 Date: %s
⏰ Time: %s
🏠 Unit Interest: %s

📍 *Location:*
%s

Our team will be ready to welcome you!

Need to reschedule? Contact us at: %s

See you soon! 🌟`, visit.Name, visit.PreferredDate, visit.PreferredTime, visit.UnitType, ShowFlatAddressLines, t.AgentPhone)
}
