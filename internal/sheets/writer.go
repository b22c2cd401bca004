package sheets

import (
	"context"
	"fmt"

	"ocean_tracker/internal/report"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/sheets/v4"
)

// API is the subset of the spreadsheet service the writer drives. *Client implements it.
type API interface {
	FindSheet(ctx context.Context, spreadsheetID, title string) (*SheetInfo, error)
	AddSheet(ctx context.Context, spreadsheetID, title string) (int64, error)
	BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error
	ClearRange(ctx context.Context, spreadsheetID, range_ string) error
	UpdateRange(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}) error
}

// Write steps, in execution order.
const (
	StepLocate      = "locate sheet"
	StepUnmerge     = "unmerge cells"
	StepClear       = "clear values"
	StepWrite       = "write values"
	StepResetFormat = "reset formatting"
	StepFormat      = "apply formatting"
)

// StepError reports which step of a sheet rewrite failed. Steps before it
// have already been applied; nothing is rolled back.
type StepError struct {
	Sheet string
	Step  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("sheet %q: %s: %v", e.Sheet, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Writer replaces the contents of a tab with a report.SheetUpdate.
type Writer struct {
	api           API
	spreadsheetID string
}

func NewWriter(api API, spreadsheetID string) *Writer {
	return &Writer{api: api, spreadsheetID: spreadsheetID}
}

// Publish rewrites the tab named in update. Each step is a separate call and
// the sequence stops at the first failure.
func (w *Writer) Publish(ctx context.Context, update report.SheetUpdate) error {
	title := update.SheetName
	fail := func(step string, err error) error {
		log.Error().Err(err).Str("sheet", title).Str("step", step).Msg("Sheet update aborted")
		return &StepError{Sheet: title, Step: step, Err: err}
	}

	info, err := w.locate(ctx, title)
	if err != nil {
		return fail(StepLocate, err)
	}

	if err := w.api.BatchUpdate(ctx, w.spreadsheetID, unmergeRequests(info.ID)); err != nil {
		return fail(StepUnmerge, err)
	}

	if err := w.api.ClearRange(ctx, w.spreadsheetID, A1Range(title, "")); err != nil {
		return fail(StepClear, err)
	}

	if err := w.api.UpdateRange(ctx, w.spreadsheetID, A1Range(title, "A1"), update.Rows); err != nil {
		return fail(StepWrite, err)
	}

	if err := w.api.BatchUpdate(ctx, w.spreadsheetID, resetRequests(info.ID, info.ConditionalRules)); err != nil {
		return fail(StepResetFormat, err)
	}

	if reqs := FormatRequests(info.ID, update.Format); len(reqs) > 0 {
		if err := w.api.BatchUpdate(ctx, w.spreadsheetID, reqs); err != nil {
			return fail(StepFormat, err)
		}
	}

	log.Info().
		Str("sheet", title).
		Int("rows", len(update.Rows)).
		Int("data_rows", update.DataRows).
		Msg("Sheet update complete")
	return nil
}

func (w *Writer) locate(ctx context.Context, title string) (*SheetInfo, error) {
	info, err := w.api.FindSheet(ctx, w.spreadsheetID, title)
	if err != nil {
		return nil, err
	}
	if info != nil {
		log.Debug().Str("sheet", title).Int64("sheet_id", info.ID).Msg("Found existing sheet")
		return info, nil
	}

	id, err := w.api.AddSheet(ctx, w.spreadsheetID, title)
	if err != nil {
		return nil, err
	}
	log.Info().Str("sheet", title).Int64("sheet_id", id).Msg("Created sheet")
	return &SheetInfo{ID: id, Title: title}, nil
}
