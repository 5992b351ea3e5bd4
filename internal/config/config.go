// Package config loads the bot configuration from the environment.
// A local .env file is honoured for development; real environment variables win.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Messaging providers.
const (
	ProviderCloud  = "cloud"
	ProviderTwilio = "twilio"
)

// Booking flow modes.
const (
	BookingFlowForm   = "form"
	BookingFlowGuided = "guided"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	WhatsApp WhatsAppConfig
	Twilio   TwilioConfig
	Gemini   GeminiConfig
	Google   GoogleConfig
	Bot      BotConfig
	Storage  StorageConfig
	Admin    AdminConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        string
	Environment string
	PublicURL   string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// WhatsAppConfig holds WhatsApp Cloud API settings.
type WhatsAppConfig struct {
	Provider      string
	Token         string
	PhoneNumberID string
	APIVersion    string
	APIBase       string
	AppSecret     string
	VerifyToken   string
}

// TwilioConfig holds the Twilio transport credentials.
type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	WhatsAppFrom string
}

// GeminiConfig holds generative answer settings.
type GeminiConfig struct {
	APIKey        string
	Model         string
	Endpoint      string
	RatePerMinute int
}

// GoogleConfig holds service-account settings for Sheets, Drive and Calendar.
type GoogleConfig struct {
	CredentialsFile string
	CalendarID      string
	Scopes          []string
	SheetName       string
	SpreadsheetID   string
}

// BotConfig holds conversation behaviour settings.
type BotConfig struct {
	BrochureMediaID     string
	BrochureFilename    string
	BrochureURL         string
	BookingFormURL      string
	AgentPhone          string
	BookingFlowMode     string
	SessionTTL          time.Duration
	FAQDataPath         string
	BookingPollInterval time.Duration
}

// StorageConfig selects the lead ledger backend.
type StorageConfig struct {
	UseMemoryStore bool
	DatabaseURL    string
}

// AdminConfig protects the admin routes. Empty token disables them.
type AdminConfig struct {
	Token string
}

// Load reads configuration. envFiles default to ".env"; missing files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables already present in the environment.
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("port"),
			Environment: v.GetString("environment"),
			PublicURL:   v.GetString("public_url"),
		},
		Log: LogConfig{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
		WhatsApp: WhatsAppConfig{
			Provider:      strings.ToLower(strings.TrimSpace(v.GetString("messaging_provider"))),
			Token:         v.GetString("whatsapp_token"),
			PhoneNumberID: v.GetString("whatsapp_phone_number_id"),
			APIVersion:    v.GetString("whatsapp_api_version"),
			APIBase:       strings.TrimRight(v.GetString("whatsapp_api_base"), "/"),
			AppSecret:     v.GetString("whatsapp_app_secret"),
			VerifyToken:   v.GetString("verify_token"),
		},
		Twilio: TwilioConfig{
			AccountSID:   v.GetString("twilio_account_sid"),
			AuthToken:    v.GetString("twilio_auth_token"),
			WhatsAppFrom: v.GetString("twilio_whatsapp_from"),
		},
		Gemini: GeminiConfig{
			APIKey:        v.GetString("gemini_api_key"),
			Model:         v.GetString("gemini_model"),
			Endpoint:      strings.TrimSpace(v.GetString("gemini_endpoint")),
			RatePerMinute: v.GetInt("genai_rate_per_minute"),
		},
		Google: GoogleConfig{
			CredentialsFile: v.GetString("google_credentials_file"),
			CalendarID:      v.GetString("google_calendar_id"),
			Scopes:          strings.Fields(v.GetString("google_scopes")),
			SheetName:       v.GetString("site_visits_sheet_name"),
			SpreadsheetID:   v.GetString("site_visits_spreadsheet_id"),
		},
		Bot: BotConfig{
			BrochureMediaID:     v.GetString("brochure_media_id"),
			BrochureFilename:    v.GetString("brochure_filename"),
			BrochureURL:         v.GetString("brochure_url"),
			BookingFormURL:      v.GetString("booking_form_url"),
			AgentPhone:          v.GetString("agent_phone"),
			BookingFlowMode:     strings.ToLower(strings.TrimSpace(v.GetString("booking_flow_mode"))),
			SessionTTL:          v.GetDuration("session_ttl"),
			FAQDataPath:         v.GetString("faq_data_path"),
			BookingPollInterval: v.GetDuration("booking_poll_interval"),
		},
		Storage: StorageConfig{
			UseMemoryStore: v.GetBool("use_memory_store"),
			DatabaseURL:    v.GetString("database_url"),
		},
		Admin: AdminConfig{
			Token: v.GetString("admin_token"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "5000")
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	v.SetDefault("messaging_provider", ProviderCloud)
	v.SetDefault("whatsapp_api_version", "v18.0")
	v.SetDefault("whatsapp_api_base", "https://graph.facebook.com")

	v.SetDefault("gemini_model", "gemini-1.5-flash")
	v.SetDefault("genai_rate_per_minute", 0)

	v.SetDefault("google_credentials_file", "credentials.json")
	v.SetDefault("google_calendar_id", "primary")
	v.SetDefault("google_scopes", "https://www.googleapis.com/auth/calendar")
	v.SetDefault("site_visits_sheet_name", "Brookstone Site Visits")

	v.SetDefault("brochure_filename", "Brookstone_Brochure.pdf")
	v.SetDefault("booking_form_url", "https://docs.google.com/forms/d/e/1FAIpQLSceds-nIr9vTLHJ0Jl1TOv0DNYGQhb0CtEa2R3mA9Ae3iP8Lg/viewform")
	v.SetDefault("agent_phone", "+91 1234567890")
	v.SetDefault("booking_flow_mode", BookingFlowForm)
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("booking_poll_interval", "0s")

	v.SetDefault("use_memory_store", false)
}

// Validate checks enumerated values and durations.
func (c *Config) Validate() error {
	switch c.WhatsApp.Provider {
	case ProviderCloud, ProviderTwilio:
	default:
		return fmt.Errorf("config: unknown MESSAGING_PROVIDER %q", c.WhatsApp.Provider)
	}
	switch c.Bot.BookingFlowMode {
	case BookingFlowForm, BookingFlowGuided:
	default:
		return fmt.Errorf("config: unknown BOOKING_FLOW_MODE %q", c.Bot.BookingFlowMode)
	}
	if c.Bot.SessionTTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive, got %s", c.Bot.SessionTTL)
	}
	if c.Bot.BookingPollInterval < 0 {
		return fmt.Errorf("config: BOOKING_POLL_INTERVAL must not be negative")
	}
	return nil
}

// WhatsAppConfigured reports whether the selected transport has credentials.
func (c *Config) WhatsAppConfigured() bool {
	if c.WhatsApp.Provider == ProviderTwilio {
		return c.Twilio.AccountSID != "" && c.Twilio.AuthToken != "" && c.Twilio.WhatsAppFrom != ""
	}
	return c.WhatsApp.Token != "" && c.WhatsApp.PhoneNumberID != ""
}

// GeminiConfigured reports whether a generative API key is present.
func (c *Config) GeminiConfigured() bool {
	return c.Gemini.APIKey != ""
}

// LedgerConfigured reports whether the site-visit spreadsheet can be located.
func (c *Config) LedgerConfigured() bool {
	return c.Google.CredentialsFile != "" && (c.Google.SpreadsheetID != "" || c.Google.SheetName != "")
}

// UseDatabase reports whether leads go to PostgreSQL.
func (c *Config) UseDatabase() bool {
	return !c.Storage.UseMemoryStore && c.Storage.DatabaseURL != ""
}
