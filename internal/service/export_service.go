package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
	"github.com/noah-isme/youth-sports-api/pkg/export"
)

// ExportFormat selects the roster rendering.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type rosterSource interface {
	FindByID(ctx context.Context, id string) (*models.TeamSummary, error)
	Roster(ctx context.Context, teamID string) ([]models.RosterEntry, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders team rosters for coaches and administrators.
type ExportService struct {
	teams  rosterSource
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(teams rosterSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{teams: teams, logger: logger, now: time.Now}
}

// Roster renders the active roster of a team as CSV or PDF.
func (s *ExportService) Roster(ctx context.Context, teamID string, format ExportFormat) (*ExportFile, error) {
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	team, err := s.teams.FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "team not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load team")
	}
	entries, err := s.teams.Roster(ctx, teamID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	dataset := s.buildRosterDataset(team, entries)
	var payload []byte
	contentType := "text/csv"
	switch format {
	case ExportFormatPDF:
		payload, err = export.RenderPDF(dataset)
		contentType = "application/pdf"
	default:
		payload, err = export.RenderCSV(dataset)
	}
	if err != nil {
		s.logger.Error("roster render failed", zap.String("team_id", teamID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}

	return &ExportFile{
		Filename:    s.buildFilename(team, format),
		ContentType: contentType,
		Data:        payload,
	}, nil
}

func (s *ExportService) buildRosterDataset(team *models.TeamSummary, entries []models.RosterEntry) export.Dataset {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strings.TrimSpace(e.StudentFirstName + " " + e.StudentLastName),
			e.DateOfBirth.Format("2006-01-02"),
			e.Grade,
			e.ParentName,
			e.ParentEmail,
			e.ParentPhone,
			strings.TrimSpace(e.EmergencyContactName + " " + e.EmergencyContactPhone),
			e.PaymentStatus,
		})
	}
	subtitle := team.SchoolName
	if team.Season != "" {
		subtitle += " - " + team.Season
	}
	return export.Dataset{
		Title:       team.Name + " roster",
		Subtitle:    subtitle,
		Headers:     []string{"Student", "Date of birth", "Grade", "Parent", "Email", "Phone", "Emergency contact", "Payment"},
		Rows:        rows,
		GeneratedAt: s.now().UTC(),
	}
}

func (s *ExportService) buildFilename(team *models.TeamSummary, format ExportFormat) string {
	timestamp := s.now().UTC().Format("20060102")
	return fmt.Sprintf("roster_%s_%s.%s", strings.ToLower(sanitizeFilename(team.Name)), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_", "\"", "")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
