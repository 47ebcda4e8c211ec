package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/room-booking-api/internal/dto"
	"github.com/noah-isme/room-booking-api/internal/models"
	appErrors "github.com/noah-isme/room-booking-api/pkg/errors"
	"github.com/noah-isme/room-booking-api/pkg/export"
)

// DefaultExportFormat is used when a request names no format.
const DefaultExportFormat = "csv"

type timetableSource interface {
	Build(ctx context.Context, roomID, offset int, viewer models.Actor) (*dto.TimetableResponse, error)
}

type tableRenderer interface {
	ContentType() string
	Extension() string
	Render(table export.Table) ([]byte, error)
}

// ExportResult is a rendered file ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders timetables as downloadable files.
type ExportService struct {
	timetables timetableSource
	renderers  map[string]tableRenderer
	logger     *zap.Logger
}

// NewExportService constructs an ExportService. Without renderers it serves CSV and PDF.
func NewExportService(timetables timetableSource, logger *zap.Logger, renderers ...tableRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(renderers) == 0 {
		renderers = []tableRenderer{export.NewCSVExporter(), export.NewPDFExporter()}
	}
	byFormat := make(map[string]tableRenderer, len(renderers))
	for _, r := range renderers {
		byFormat[r.Extension()] = r
	}
	return &ExportService{timetables: timetables, renderers: byFormat, logger: logger}
}

// Timetable renders the viewer's week grid in the requested format.
func (s *ExportService) Timetable(ctx context.Context, roomID, offset int, format string, viewer models.Actor) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = DefaultExportFormat
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	grid, err := s.timetables.Build(ctx, roomID, offset, viewer)
	if err != nil {
		return nil, err
	}

	body, err := renderer.Render(TimetableTable(grid))
	if err != nil {
		s.logger.Error("timetable export failed", zap.Int("room_id", roomID), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}

	return &ExportResult{
		Filename:    fmt.Sprintf("room-%d-week-%d.%s", grid.RoomID, grid.Week, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

// TimetableTable flattens a week grid into an hour-by-weekday table.
func TimetableTable(grid *dto.TimetableResponse) export.Table {
	headers := make([]string, 0, 8)
	headers = append(headers, "Hour")
	for d := 0; d < 7; d++ {
		headers = append(headers, grid.WeekStart.AddDate(0, 0, d).Format("Mon 02/01"))
	}

	rows := make([][]string, 0, len(grid.Rows))
	for i, cells := range grid.Rows {
		row := make([]string, 0, len(cells)+1)
		row = append(row, grid.Titles[i])
		for _, cell := range cells {
			row = append(row, cellText(cell))
		}
		rows = append(rows, row)
	}

	return export.Table{
		Title:   fmt.Sprintf("%s, week %d (%s)", grid.RoomName, grid.Week, grid.WeekStart.Format("2006-01-02")),
		Headers: headers,
		Rows:    rows,
	}
}

func cellText(cell dto.SlotView) string {
	if cell.ShowText != "" {
		return cell.ShowText
	}
	if cell.Stored {
		return string(cell.State)
	}
	return ""
}
