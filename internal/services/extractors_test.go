package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brookstone/whatsapp-bot/internal/models"
)

func TestExtractBudget(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"1.5 cr", "1.5 Cr", true},
		{"₹2 Crore", "2.0 Cr", true},
		{"150 lakhs", "150.0 Lakh", true},
		{"₹50 Lakh", "50.0 Lakh", true},
		{"my budget is around 1.25crores", "1.25 Cr", true},
		{"2 crore or maybe 90 lakh", "2.0 Cr", true},
		{"nice place", "", false},
		{"3 bhk please", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ExtractBudget(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractMobile(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"9876543210", "9876543210", true},
		{"+91 9876543210", "9876543210", true},
		{"+919876543210", "9876543210", true},
		{"+91-9876543210", "9876543210", true},
		{"my number is 919876543210 thanks", "9876543210", true},
		{"send it to 7012345678.", "7012345678", true},
		{"5876543210", "", false},
		{"98765432101", "", false},
		{"12345", "", false},
		{"call me at 98765 43210", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ExtractMobile(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		text string
		want models.Language
	}{
		{"What is the price of a 3 BHK?", models.LanguageEnglish},
		{"कीमत क्या है?", models.LanguageHindi},
		{"કિંમત શું છે?", models.LanguageGujarati},
		{"3 bhk ka price kya hai", models.LanguageHindi},
		{"hai there", models.LanguageEnglish},
		{"", models.LanguageEnglish},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.text))
		})
	}
}

func TestRecipientNumber(t *testing.T) {
	assert.Equal(t, "919876543210", RecipientNumber("9876543210"))
	assert.Equal(t, "919876543210", RecipientNumber("+91 98765-43210"))
	assert.Equal(t, "919876543210", RecipientNumber("919876543210"))
	assert.Equal(t, "14155238886", RecipientNumber("+1 (415) 523-8886"))
}
