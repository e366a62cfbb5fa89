package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/credit-tracker-api/internal/dto"
	"github.com/noah-isme/credit-tracker-api/internal/models"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
	"github.com/noah-isme/credit-tracker-api/pkg/export"
	"github.com/noah-isme/credit-tracker-api/pkg/signing"
)

// Export formats accepted by CreditService.Export.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type creditCompletionReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.CompletionDetail, error)
}

type creditStudentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type creditProgramReader interface {
	Verticals(ctx context.Context) ([]models.Vertical, error)
	Requirements(ctx context.Context, filter models.RequirementFilter) ([]models.ProgramRequirement, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// CreditService computes a student's credit summary from the completion ledger.
type CreditService struct {
	completions creditCompletionReader
	students    creditStudentLookup
	program     creditProgramReader
	csv         datasetRenderer
	pdf         datasetRenderer
	signer      *signing.Signer
	logger      *zap.Logger
}

// NewCreditService constructs a CreditService.
func NewCreditService(completions creditCompletionReader, students creditStudentLookup, program creditProgramReader, logger *zap.Logger) *CreditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreditService{
		completions: completions,
		students:    students,
		program:     program,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

// WithLinkSigner enables signed export links.
func (s *CreditService) WithLinkSigner(signer *signing.Signer) *CreditService {
	s.signer = signer
	return s
}

// Summary aggregates the student's completions against program requirements.
func (s *CreditService) Summary(ctx context.Context, caller *models.Identity, studentID string) (*dto.CreditSummary, error) {
	if err := authorizeStudentAccess(caller, studentID, models.PermStudentsManage, models.PermReportsView); err != nil {
		return nil, err
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	return s.summarize(ctx, student)
}

func (s *CreditService) summarize(ctx context.Context, student *models.Student) (*dto.CreditSummary, error) {
	completions, err := s.completions.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Store(err, "failed to load completions")
	}
	verticals, err := s.program.Verticals(ctx)
	if err != nil {
		return nil, err
	}
	requirements, err := s.program.Requirements(ctx, models.RequirementFilter{})
	if err != nil {
		return nil, err
	}

	summary := Aggregate(student.ID, student.Semester, completions, verticals, requirements)
	return &summary, nil
}

// Export renders the student's credit statement as CSV or PDF.
func (s *CreditService) Export(ctx context.Context, caller *models.Identity, studentID, format string) (*dto.ExportFile, error) {
	format, err := normalizeFormat(format)
	if err != nil {
		return nil, err
	}
	if err := authorizeStudentAccess(caller, studentID, models.PermStudentsManage, models.PermReportsView); err != nil {
		return nil, err
	}
	return s.render(ctx, studentID, format)
}

// ExportLink issues a short-lived token that downloads the statement without
// credentials. Access is checked when the link is issued.
func (s *CreditService) ExportLink(ctx context.Context, caller *models.Identity, studentID, format string) (*dto.ExportLink, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export links are not configured")
	}
	format, err := normalizeFormat(format)
	if err != nil {
		return nil, err
	}
	if err := authorizeStudentAccess(caller, studentID, models.PermStudentsManage, models.PermReportsView); err != nil {
		return nil, err
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}

	token, expiresAt, err := s.signer.Sign(studentID, format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}
	s.logger.Debug("export link issued", zap.String("student_id", studentID), zap.String("format", format), zap.Time("expires_at", expiresAt))
	return &dto.ExportLink{Token: token, Format: format, ExpiresAt: expiresAt}, nil
}

// ExportByToken renders the statement a signed link points at.
func (s *CreditService) ExportByToken(ctx context.Context, token string) (*dto.ExportFile, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export links are not configured")
	}
	claims, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, signing.ErrExpired) {
			return nil, appErrors.Clone(appErrors.ErrInvalidToken, "export link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "invalid export link")
	}
	format, err := normalizeFormat(claims.Resource)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "invalid export link")
	}
	return s.render(ctx, claims.Subject, format)
}

func normalizeFormat(format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "":
		return ExportFormatCSV, nil
	case ExportFormatCSV, ExportFormatPDF:
		return format, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func (s *CreditService) render(ctx context.Context, studentID, format string) (*dto.ExportFile, error) {
	renderer, contentType := s.csv, "text/csv"
	if format == ExportFormatPDF {
		renderer, contentType = s.pdf, "application/pdf"
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	summary, err := s.summarize(ctx, student)
	if err != nil {
		return nil, err
	}

	data, err := renderer.Render(statementDataset(student, summary))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render credit statement")
	}

	name := student.RollNumber
	if name == "" {
		name = student.ID
	}
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("credits-%s.%s", name, format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func statementDataset(student *models.Student, summary *dto.CreditSummary) export.Dataset {
	semester := "-"
	if student.Semester != nil {
		semester = strconv.Itoa(*student.Semester)
	}
	rows := make([][]string, 0, len(summary.VerticalProgress))
	for _, p := range summary.VerticalProgress {
		rows = append(rows, []string{p.Vertical, formatCredits(p.Completed), formatCredits(p.Required), formatPercentage(p.Percentage)})
	}
	return export.Dataset{
		Title: "Credit Statement",
		Summary: []export.Field{
			{Label: "Student", Value: student.FullName},
			{Label: "Roll number", Value: student.RollNumber},
			{Label: "Semester", Value: semester},
			{Label: "Total credits", Value: formatCredits(summary.TotalCredits)},
		},
		Headers: []string{"Vertical", "Completed", "Required", "Progress"},
		Rows:    rows,
	}
}

func formatCredits(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatPercentage(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%d%%", *p)
}
