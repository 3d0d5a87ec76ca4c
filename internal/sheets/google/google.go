package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"eglise/internal/core"
	ports "eglise/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year (e.g. "Archives"); code prefixes the year.
	archiveBase string
}

// Ensure interface conformance
var _ ports.ArchiveWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS for auth.
// Optional sheet name: GOOGLE_ARCHIVE_SHEET_NAME (default "Archives").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	archiveBase := strings.TrimSpace(os.Getenv("GOOGLE_ARCHIVE_SHEET_NAME"))
	if archiveBase == "" {
		archiveBase = "Archives"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		archiveBase:   archiveBase,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// WriteYearArchive appends the closed year's contribution rows and totals to
// the "<year> Archives" sheet and returns the written range.
func (c *Client) WriteYearArchive(ctx context.Context, summary core.YearSummary, contributions []core.ContributionWithMember) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheetName := fmt.Sprintf("%d %s", summary.Year, c.archiveBase)

	rows := archiveRows(summary, contributions)

	// Find the next empty row by getting the sheet dimensions first
	rng := fmt.Sprintf("%s!A:A", sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get sheet dimensions for %s: %w", sheetName, err)
	}
	startRow := len(resp.Values) + 1

	dataRange := fmt.Sprintf("%s!A%d:E%d", sheetName, startRow, startRow+len(rows)-1)
	vr := &gsheet.ValueRange{Values: rows}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to write archive to sheet %s: %w", sheetName, err)
	}

	slog.InfoContext(ctx, "Exported year archive",
		"year", summary.Year,
		"rows", len(rows),
		"range", dataRange)

	return dataRange, nil
}

// archiveRows lays out the export: one header row, one row per
// contribution, then a total row.
func archiveRows(summary core.YearSummary, contributions []core.ContributionWithMember) [][]any {
	rows := make([][]any, 0, len(contributions)+2)
	rows = append(rows, []any{"Date", "Membre", "Carte", "Période", "Montant"})
	for _, cw := range contributions {
		rows = append(rows, []any{
			cw.PaymentDate,
			cw.MemberName,
			cw.MemberCard,
			cw.Period,
			cw.Amount.String(),
		})
	}
	total := fmt.Sprintf("TOTAL : %s", core.FormatAriary(summary.Total))
	rows = append(rows, []any{"", "", "", "", total})
	return rows
}
