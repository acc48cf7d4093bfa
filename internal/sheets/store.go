package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var _ service.TabularStore = (*Store)(nil)

// Store implements service.TabularStore on top of a single spreadsheet.
// Each table is a sheet (tab) of that spreadsheet.
type Store struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewStore creates a new Google Sheets table store.
func NewStore(ctx context.Context, config Config, logger *slog.Logger) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newStore(srv, config, logger), nil
}

func newStore(srv *sheets.Service, config Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		config:  config,
		service: srv,
		logger:  logger,
	}
}

// ReadAll returns the formatted values of every row of table.
func (s *Store) ReadAll(ctx context.Context, table string) ([][]string, error) {
	var resp *sheets.ValueRange

	err := common.WithRetry(ctx, func() error {
		var getErr error
		resp, getErr = s.service.Spreadsheets.Values.Get(s.config.SpreadsheetID, QualifiedRange(table, "")).
			ValueRenderOption("FORMATTED_VALUE").
			Context(ctx).
			Do()
		return classify(getErr)
	}, s.retryOptions())
	if err != nil {
		return nil, common.Unavailable(fmt.Sprintf("read table %s", table), err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}

	s.logger.Debug("read table", "table", table, "rows", len(rows))
	return rows, nil
}

// AppendRow appends a single row to table. Appends are not retried so a
// timeout never produces a duplicated ledger line.
func (s *Store) AppendRow(ctx context.Context, table string, row []string) error {
	valueRange := &sheets.ValueRange{
		Values: [][]any{toAny(row)},
	}

	_, err := s.service.Spreadsheets.Values.Append(s.config.SpreadsheetID, QualifiedRange(table, "A1"), valueRange).
		ValueInputOption(s.config.ValueInputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return common.Unavailable(fmt.Sprintf("append to %s", table), classify(err))
	}

	s.logger.Info("appended row", "table", table, "cells", len(row))
	return nil
}

// UpdateRange overwrites the cells of cellRange in table.
func (s *Store) UpdateRange(ctx context.Context, table, cellRange string, values [][]string) error {
	if _, _, err := ParseRange(cellRange); err != nil {
		return err
	}

	grid := make([][]any, len(values))
	for i, row := range values {
		grid[i] = toAny(row)
	}

	err := common.WithRetry(ctx, func() error {
		_, updErr := s.service.Spreadsheets.Values.Update(s.config.SpreadsheetID, QualifiedRange(table, cellRange), &sheets.ValueRange{Values: grid}).
			ValueInputOption(s.config.ValueInputOption).
			Context(ctx).
			Do()
		return classify(updErr)
	}, s.retryOptions())
	if err != nil {
		return common.Unavailable(fmt.Sprintf("update %s!%s", table, cellRange), err)
	}

	s.logger.Info("updated range", "table", table, "range", cellRange)
	return nil
}

func (s *Store) retryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  s.config.RetryAttempts,
		InitialDelay: s.config.RetryDelay,
		Multiplier:   2.0,
	}
}

// classify marks Sheets API errors as retryable or not.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code == http.StatusBadRequest, apiErr.Code == http.StatusNotFound:
		return &common.RetryableError{Err: fmt.Errorf("%w: %w", common.ErrTableMissing, err), Retryable: false}
	case apiErr.Code == http.StatusUnauthorized, apiErr.Code == http.StatusForbidden:
		return &common.RetryableError{Err: err, Retryable: false}
	default:
		return err
	}
}

func toAny(row []string) []any {
	out := make([]any, len(row))
	for i, cell := range row {
		out[i] = cell
	}
	return out
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	method, err := config.Auth()
	if err != nil {
		return nil, err
	}
	if method == AuthServiceAccount {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		tokenSource = client.TokenSource(ctx, &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		})
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}
