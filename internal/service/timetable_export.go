package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
	"github.com/noah-isme/sma-scheduler-api/pkg/export"
)

// Export formats supported by timetable downloads.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var dayNames = map[int]string{1: "Mon", 2: "Tue", 3: "Wed", 4: "Thu", 5: "Fri", 6: "Sat", 7: "Sun"}

// Export renders a stored timetable as CSV rows or a PDF week grid.
func (s *ScheduleGeneratorService) Export(ctx context.Context, timetableID, format, sectionID string) (*dto.ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	record, err := s.load(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	slots, err := s.slots.ListByTimetable(ctx, timetableID, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable slots")
	}

	name := exportBaseName(record, sectionID)
	switch format {
	case ExportFormatPDF:
		body, err := s.pdf.RenderGrid(s.gridSheet(record, sectionID, slots))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &dto.ExportFile{FileName: name + ".pdf", ContentType: "application/pdf", Body: body}, nil
	default:
		rows := make([]dto.TimetableSlotRow, 0, len(slots))
		for _, slot := range slots {
			rows = append(rows, dto.TimetableSlotRow{
				Day:          dayName(slot.DayOfWeek),
				StartTime:    slot.StartTime,
				EndTime:      slot.EndTime,
				SectionID:    slot.SectionID,
				CourseCode:   slot.CourseCode,
				InstructorID: slot.InstructorID,
				RoomID:       slot.RoomID,
				Shared:       slot.Shared,
			})
		}
		body, err := s.csv.Render(rows)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &dto.ExportFile{FileName: name + ".csv", ContentType: "text/csv", Body: body}, nil
	}
}

// gridSheet lays slots out as slot rows × day columns. Every slot a session
// covers shows its label; a year-level sheet merges a shared session that is
// stored once per section into one entry.
func (s *ScheduleGeneratorService) gridSheet(record *models.Timetable, sectionID string, slots []models.TimetableSlot) export.GridSheet {
	grid := s.gridView()
	columns := make([]string, 0, len(grid.Days))
	columnOf := make(map[int]int, len(grid.Days))
	for i, day := range grid.Days {
		columns = append(columns, dayName(day))
		columnOf[day] = i
	}
	cells := make([][]string, len(grid.Labels))
	for r := range cells {
		cells[r] = make([]string, len(columns))
	}

	seen := map[string]bool{}
	for _, slot := range slots {
		col, ok := columnOf[slot.DayOfWeek]
		if !ok {
			continue
		}
		label := slot.CourseCode
		if slot.Shared {
			label += " (shared)"
		} else if sectionID == "" {
			label += " " + slot.SectionID
		}
		for r := slot.StartSlot; r < slot.StartSlot+slot.SlotCount && r < len(cells); r++ {
			key := fmt.Sprintf("%d:%d:%s", r, col, label)
			if seen[key] {
				continue
			}
			seen[key] = true
			if cells[r][col] != "" {
				cells[r][col] += ", "
			}
			cells[r][col] += label
		}
	}

	subtitle := fmt.Sprintf("%s %s, version %d, %s", record.Scope, record.Ref, record.Version, record.Status)
	if sectionID != "" {
		subtitle += ", section " + sectionID
	}
	return export.GridSheet{
		Title:    "Weekly timetable",
		Subtitle: subtitle,
		Columns:  columns,
		Rows:     grid.Labels,
		Cells:    cells,
		Notes:    []string{fmt.Sprintf("Placed %d of %d sessions.", record.Placed, record.Total)},
	}
}

func exportBaseName(record *models.Timetable, sectionID string) string {
	name := fmt.Sprintf("timetable-%s-%s-v%d", strings.ToLower(string(record.Scope)), record.Ref, record.Version)
	if sectionID != "" {
		name += "-" + sectionID
	}
	return name
}

func dayName(day int) string {
	if name, ok := dayNames[day]; ok {
		return name
	}
	return fmt.Sprintf("Day %d", day)
}
