package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"aura/internal/core"
	"aura/internal/log"
	ports "aura/internal/sheets"
)

// Header is the first row of the export sheet.
var Header = []any{"occurred_at", "member", "delta", "reason", "id"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	loc           *time.Location
	logger        *log.Logger
}

var _ ports.EventAppender = (*Client)(nil)

// Options configures New. CredentialsJSON wins over CredentialsFile.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	Location        *time.Location
	Logger          *log.Logger
}

// NewFromEnv creates a Sheets client from GOOGLE_SPREADSHEET_ID,
// GOOGLE_SHEET_NAME (default "Aura") and GOOGLE_CREDENTIALS_JSON or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	return New(ctx, Options{
		SpreadsheetID:   os.Getenv("GOOGLE_SPREADSHEET_ID"),
		SheetName:       os.Getenv("GOOGLE_SHEET_NAME"),
		CredentialsJSON: os.Getenv("GOOGLE_CREDENTIALS_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
	})
}

// New creates a Sheets client using service account credentials.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	credentialsJSON, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, opts), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, opts Options) *Client {
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = "Aura"
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(opts.SpreadsheetID),
		sheetName:     sheetName,
		loc:           loc,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func loadCredentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		buf, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return buf, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// EnsureHeader writes Header into row 1 when the sheet is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	rng := fmt.Sprintf("%s!A1:E1", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(resp.Values) > 0 {
		return nil
	}
	vr := &gsheet.ValueRange{Values: [][]any{Header}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	c.logger.InfoContext(ctx, "Wrote export header", "sheet", c.sheetName)
	return nil
}

// AppendEvent adds e below the last used row and returns the updated range.
func (c *Client) AppendEvent(ctx context.Context, e core.EventItem) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:E", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{EventRow(e, c.loc)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append row: %w", err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.DebugContext(ctx, "Appended aura event",
		log.FieldEventID, e.ID,
		log.FieldMemberID, e.MemberID,
		"range", ref)
	return ref, nil
}

// EventRow renders e in Header column order.
func EventRow(e core.EventItem, loc *time.Location) []any {
	if loc == nil {
		loc = time.UTC
	}
	return []any{
		e.OccurredAt.In(loc).Format(time.RFC3339),
		e.Member.DisplayName(),
		e.Delta,
		e.Reason,
		e.ID.String(),
	}
}
