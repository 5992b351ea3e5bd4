package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/brookstone/whatsapp-bot/internal/models"
)

// Site-visit sheet headers.
const (
	headerName          = "Name"
	headerPhone         = "Phone"
	headerPreferredDate = "Preferred Date"
	headerPreferredTime = "Preferred Time"
	headerUnitType      = "Unit Type"
	headerStatus        = "Status"
)

// defaultStatusColumn is used when the sheet has no Status header (column H).
const defaultStatusColumn = 8

// ErrSpreadsheetNotFound is returned when no spreadsheet has the configured name.
var ErrSpreadsheetNotFound = errors.New("spreadsheet not found")

// SheetsConfig locates the site-visit spreadsheet.
type SheetsConfig struct {
	CredentialsFile string
	SpreadsheetID   string
	SheetName       string
}

// SheetsLedger reads site-visit requests from the first worksheet of a
// Google spreadsheet and writes back their status.
type SheetsLedger struct {
	sheets *sheets.Service
	drive  *drive.Service
	name   string
	logger *zap.Logger

	mu            sync.Mutex
	spreadsheetID string
	worksheet     string
	statusColumn  int
}

// NewSheetsLedger creates the ledger using service-account credentials.
func NewSheetsLedger(ctx context.Context, cfg SheetsConfig, logger *zap.Logger) (*SheetsLedger, error) {
	if cfg.CredentialsFile == "" || (cfg.SpreadsheetID == "" && cfg.SheetName == "") {
		return nil, fmt.Errorf("sheets ledger: %w", ErrNotConfigured)
	}

	creds := option.WithCredentialsFile(cfg.CredentialsFile)
	sheetsSvc, err := sheets.NewService(ctx, creds, option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("sheets ledger: create sheets client: %w", err)
	}

	ledger := &SheetsLedger{
		sheets:        sheetsSvc,
		name:          cfg.SheetName,
		logger:        logger,
		spreadsheetID: cfg.SpreadsheetID,
		statusColumn:  defaultStatusColumn,
	}
	if cfg.SpreadsheetID == "" {
		driveSvc, err := drive.NewService(ctx, creds, option.WithScopes(drive.DriveReadonlyScope))
		if err != nil {
			return nil, fmt.Errorf("sheets ledger: create drive client: %w", err)
		}
		ledger.drive = driveSvc
	}
	return ledger, nil
}

// ListVisits returns every data row of the first worksheet.
func (l *SheetsLedger) ListVisits(ctx context.Context) ([]models.SiteVisit, error) {
	id, err := l.resolveSpreadsheet(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := l.sheets.Spreadsheets.Get(id).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet: %w", err)
	}
	if len(doc.Sheets) == 0 || doc.Sheets[0].Properties == nil {
		return nil, fmt.Errorf("spreadsheet %s has no worksheets", id)
	}
	worksheet := doc.Sheets[0].Properties.Title

	resp, err := l.sheets.Spreadsheets.Values.Get(id, quoteSheetTitle(worksheet)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read worksheet %q: %w", worksheet, err)
	}

	visits, statusColumn := parseVisitRows(resp.Values)

	l.mu.Lock()
	l.worksheet = worksheet
	l.statusColumn = statusColumn
	l.mu.Unlock()

	return visits, nil
}

// UpdateStatus writes status into the Status cell of a sheet row.
func (l *SheetsLedger) UpdateStatus(ctx context.Context, row int, status string) error {
	id, err := l.resolveSpreadsheet(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	worksheet, column := l.worksheet, l.statusColumn
	l.mu.Unlock()
	if worksheet == "" {
		return errors.New("update status: worksheet unknown, list visits first")
	}

	cell := fmt.Sprintf("%s!%s%d", quoteSheetTitle(worksheet), columnLetter(column), row)
	body := &sheets.ValueRange{Values: [][]interface{}{{status}}}
	if _, err := l.sheets.Spreadsheets.Values.Update(id, cell, body).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", cell, err)
	}
	return nil
}

// Ping checks the spreadsheet can be located and read.
func (l *SheetsLedger) Ping(ctx context.Context) error {
	id, err := l.resolveSpreadsheet(ctx)
	if err != nil {
		return err
	}
	if _, err := l.sheets.Spreadsheets.Get(id).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		return fmt.Errorf("sheets ledger: read spreadsheet: %w", err)
	}
	return nil
}

// Name describes the ledger for health output.
func (l *SheetsLedger) Name() string { return "Google Sheets" }

func (l *SheetsLedger) resolveSpreadsheet(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.spreadsheetID != "" {
		return l.spreadsheetID, nil
	}

	query := fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false",
		strings.ReplaceAll(l.name, "'", `\'`))
	files, err := l.drive.Files.List().Q(query).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("find spreadsheet %q: %w", l.name, err)
	}
	if len(files.Files) == 0 {
		return "", fmt.Errorf("%w: %q", ErrSpreadsheetNotFound, l.name)
	}

	l.spreadsheetID = files.Files[0].Id
	l.logger.Info("site-visit spreadsheet resolved", zap.String("name", l.name), zap.String("id", l.spreadsheetID))
	return l.spreadsheetID, nil
}

// parseVisitRows turns raw sheet values into visits. The first row is the
// header; data rows are numbered from 2. It also returns the 1-based Status column.
func parseVisitRows(values [][]interface{}) ([]models.SiteVisit, int) {
	if len(values) == 0 {
		return nil, defaultStatusColumn
	}

	columns := make(map[string]int, len(values[0]))
	for i, h := range values[0] {
		columns[strings.TrimSpace(fmt.Sprint(h))] = i
	}

	statusColumn := defaultStatusColumn
	if i, ok := columns[headerStatus]; ok {
		statusColumn = i + 1
	}

	cell := func(row []interface{}, header string) string {
		i, ok := columns[header]
		if !ok || i >= len(row) || row[i] == nil {
			return ""
		}
		if f, isFloat := row[i].(float64); isFloat {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return strings.TrimSpace(fmt.Sprint(row[i]))
	}

	visits := make([]models.SiteVisit, 0, len(values)-1)
	for i, row := range values[1:] {
		visits = append(visits, models.SiteVisit{
			Row:           i + 2,
			Name:          cell(row, headerName),
			Phone:         cell(row, headerPhone),
			PreferredDate: cell(row, headerPreferredDate),
			PreferredTime: cell(row, headerPreferredTime),
			UnitType:      cell(row, headerUnitType),
			Status:        cell(row, headerStatus),
		})
	}
	return visits, statusColumn
}

// columnLetter converts a 1-based column index to A1 letters.
func columnLetter(column int) string {
	var letters []byte
	for column > 0 {
		column--
		letters = append([]byte{byte('A' + column%26)}, letters...)
		column /= 26
	}
	return string(letters)
}

func quoteSheetTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
