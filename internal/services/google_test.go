package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brookstone/whatsapp-bot/internal/models"
)

func TestParseVisitRows(t *testing.T) {
	values := [][]interface{}{
		{"Timestamp", "Name", "Phone", "Preferred Date", "Preferred Time", "Unit Type", "Budget", "Status"},
		{"05/11/2025 10:00", "Asha", "919876543210", "10/11/2025", "10:00 AM", "3 BHK", "2 Cr", "New"},
		{"05/11/2025 11:00", "Ravi", "", "11/11/2025", "02:00 PM", "4 BHK"},
	}

	visits, statusColumn := parseVisitRows(values)

	assert.Equal(t, 8, statusColumn)
	require.Len(t, visits, 2)
	assert.Equal(t, models.SiteVisit{
		Row:           2,
		Name:          "Asha",
		Phone:         "919876543210",
		PreferredDate: "10/11/2025",
		PreferredTime: "10:00 AM",
		UnitType:      "3 BHK",
		Status:        "New",
	}, visits[0])
	assert.Equal(t, 3, visits[1].Row)
	assert.Empty(t, visits[1].Status)
	assert.Empty(t, visits[1].Phone)
}

func TestParseVisitRowsFindsStatusByHeader(t *testing.T) {
	values := [][]interface{}{
		{"Status", "Name", "Phone"},
		{"New", "Asha", 9876543210.0},
	}

	visits, statusColumn := parseVisitRows(values)

	assert.Equal(t, 1, statusColumn)
	require.Len(t, visits, 1)
	assert.Equal(t, "New", visits[0].Status)
	assert.Equal(t, "9876543210", visits[0].Phone)
}

func TestParseVisitRowsWithoutStatusHeader(t *testing.T) {
	visits, statusColumn := parseVisitRows([][]interface{}{{"Name"}, {"Asha"}})
	assert.Equal(t, defaultStatusColumn, statusColumn)
	assert.Len(t, visits, 1)

	visits, statusColumn = parseVisitRows(nil)
	assert.Empty(t, visits)
	assert.Equal(t, defaultStatusColumn, statusColumn)
}

func TestColumnLetter(t *testing.T) {
	assert.Equal(t, "A", columnLetter(1))
	assert.Equal(t, "H", columnLetter(8))
	assert.Equal(t, "Z", columnLetter(26))
	assert.Equal(t, "AA", columnLetter(27))
	assert.Equal(t, "AZ", columnLetter(52))
}

func TestQuoteSheetTitle(t *testing.T) {
	assert.Equal(t, "'Form Responses 1'", quoteSheetTitle("Form Responses 1"))
	assert.Equal(t, "'Ravi''s sheet'", quoteSheetTitle("Ravi's sheet"))
}

func TestBuildVisitEvent(t *testing.T) {
	loc, err := time.LoadLocation(visitTimeZone)
	require.NoError(t, err)

	event, err := buildVisitEvent(models.SiteVisit{
		Name:          "Asha",
		PreferredDate: "05/11/2025",
		PreferredTime: "02:00 PM",
		UnitType:      "3 BHK",
	}, loc)
	require.NoError(t, err)

	assert.Equal(t, "Brookstone Site Visit - Asha (3 BHK)", event.Summary)
	assert.Equal(t, ShowFlatLocation, event.Location)
	assert.Equal(t, "Site visit appointment for Asha\nUnit Interest: 3 BHK", event.Description)
	assert.Equal(t, "2025-11-05T14:00:00+05:30", event.Start.DateTime)
	assert.Equal(t, "2025-11-05T15:00:00+05:30", event.End.DateTime)
	assert.Equal(t, visitTimeZone, event.Start.TimeZone)
	assert.True(t, event.Reminders.UseDefault)
}

func TestParseVisitStart(t *testing.T) {
	loc, err := time.LoadLocation(visitTimeZone)
	require.NoError(t, err)

	start, err := parseVisitStart("5-11-2025", "10:00 am", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 11, 5, 10, 0, 0, 0, loc), start)

	_, err = parseVisitStart("31-13-2025", "10:00 AM", loc)
	assert.Error(t, err)

	_, err = parseVisitStart("05/11/2025", "evening", loc)
	assert.Error(t, err)
}
