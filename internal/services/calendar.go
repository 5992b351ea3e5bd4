package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/brookstone/whatsapp-bot/internal/models"
)

const (
	visitTimeZone = "Asia/Kolkata"
	visitDuration = time.Hour
)

// CalendarConfig selects the calendar site visits are added to.
type CalendarConfig struct {
	CredentialsFile string
	CalendarID      string
	Scopes          []string
}

// CalendarService adds site visits to a Google Calendar
type CalendarService struct {
	svc        *calendar.Service
	calendarID string
	location   *time.Location
	logger     *zap.Logger
}

// NewCalendarService creates a calendar client using service-account credentials.
func NewCalendarService(ctx context.Context, cfg CalendarConfig, logger *zap.Logger) (*CalendarService, error) {
	if cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("calendar: %w", ErrNotConfigured)
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{calendar.CalendarScope}
	}
	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}

	loc, err := time.LoadLocation(visitTimeZone)
	if err != nil {
		return nil, fmt.Errorf("calendar: load time zone: %w", err)
	}

	svc, err := calendar.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile), option.WithScopes(scopes...))
	if err != nil {
		return nil, fmt.Errorf("calendar: create client: %w", err)
	}

	return &CalendarService{svc: svc, calendarID: calendarID, location: loc, logger: logger}, nil
}

// Verify checks the service account can read the target calendar.
func (c *CalendarService) Verify(ctx context.Context) error {
	if _, err := c.svc.Calendars.Get(c.calendarID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("calendar: access %q: %w", c.calendarID, err)
	}
	return nil
}

// AddVisit creates a one-hour event for a site visit and returns its link.
func (c *CalendarService) AddVisit(ctx context.Context, visit models.SiteVisit) (string, error) {
	event, err := buildVisitEvent(visit, c.location)
	if err != nil {
		return "", err
	}

	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calendar: insert event: %w", err)
	}
	c.logger.Info("calendar event created", zap.String("name", visit.Name), zap.String("link", created.HtmlLink))
	return created.HtmlLink, nil
}

// parseVisitStart combines a DD/MM/YYYY (or DD-MM-YYYY) date with an
// "hh:mm AM" time in loc.
func parseVisitStart(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation("2/1/2006", strings.ReplaceAll(strings.TrimSpace(date), "-", "/"), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse visit date %q: %w", date, err)
	}
	tod, err := time.Parse("3:04 PM", strings.ToUpper(strings.TrimSpace(clock)))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse visit time %q: %w", clock, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, loc), nil
}

func buildVisitEvent(visit models.SiteVisit, loc *time.Location) (*calendar.Event, error) {
	start, err := parseVisitStart(visit.PreferredDate, visit.PreferredTime, loc)
	if err != nil {
		return nil, err
	}
	end := start.Add(visitDuration)

	return &calendar.Event{
		Summary:     fmt.Sprintf("Brookstone Site Visit - %s (%s)", visit.Name, visit.UnitType),
		Location:    ShowFlatLocation,
		Description: fmt.Sprintf("Site visit appointment for %s\nUnit Interest: %s", visit.Name, visit.UnitType),
		Start: &calendar.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: visitTimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: visitTimeZone,
		},
		Reminders: &calendar.EventReminders{UseDefault: true},
	}, nil
}
