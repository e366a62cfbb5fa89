package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/credit-tracker-api/internal/dto"
	"github.com/noah-isme/credit-tracker-api/internal/models"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
)

type fakeCreditService struct {
	caller    *models.Identity
	studentID string
	format    string
	summary   *dto.CreditSummary
	file      *dto.ExportFile
	link      *dto.ExportLink
	token     string
	err       error
}

func (f *fakeCreditService) Summary(_ context.Context, caller *models.Identity, studentID string) (*dto.CreditSummary, error) {
	f.caller, f.studentID = caller, studentID
	return f.summary, f.err
}

func (f *fakeCreditService) Export(_ context.Context, caller *models.Identity, studentID, format string) (*dto.ExportFile, error) {
	f.caller, f.studentID, f.format = caller, studentID, format
	return f.file, f.err
}

func (f *fakeCreditService) ExportLink(_ context.Context, caller *models.Identity, studentID, format string) (*dto.ExportLink, error) {
	f.caller, f.studentID, f.format = caller, studentID, format
	return f.link, f.err
}

func (f *fakeCreditService) ExportByToken(_ context.Context, token string) (*dto.ExportFile, error) {
	f.token = token
	return f.file, f.err
}

type fakeBasketCreditService struct {
	filter models.CourseFilter
	resp   *dto.BasketCreditResponse
}

func (f *fakeBasketCreditService) Overview(_ context.Context, filter models.CourseFilter) (*dto.BasketCreditResponse, error) {
	f.filter = filter
	return f.resp, nil
}

func TestCreditHandlerSummaryRequiresIdentity(t *testing.T) {
	h := NewCreditHandler(&fakeCreditService{}, &fakeBasketCreditService{})

	c, rec := newContext(http.MethodGet, "/students/stu-1/credits", nil)
	h.Summary(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, appErrors.ErrMissingToken.Code, decode(t, rec).Error.Code)
}

func TestCreditHandlerSummaryPassesCaller(t *testing.T) {
	svc := &fakeCreditService{summary: &dto.CreditSummary{StudentID: "stu-1", TotalCredits: 8.5}}
	h := NewCreditHandler(svc, &fakeBasketCreditService{})

	c, rec := newContext(http.MethodGet, "/students/stu-1/credits", nil)
	c.AddParam("id", "stu-1")
	caller := &models.Identity{ID: "stu-1", Type: models.IdentityStudent}
	withIdentity(c, caller)
	h.Summary(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Same(t, caller, svc.caller)
	assert.Equal(t, "stu-1", svc.studentID)
	assert.Equal(t, 8.5, decode(t, rec).Data["total_credits"])
}

func TestCreditHandlerExportWritesAttachment(t *testing.T) {
	svc := &fakeCreditService{file: &dto.ExportFile{
		Filename:    "credits-21CS001.csv",
		ContentType: "text/csv",
		Data:        []byte("Vertical,Completed\n"),
	}}
	h := NewCreditHandler(svc, &fakeBasketCreditService{})

	c, rec := newContext(http.MethodGet, "/students/stu-1/credits/export?format=csv", nil)
	c.AddParam("id", "stu-1")
	withIdentity(c, &models.Identity{ID: "stu-1", Type: models.IdentityStudent})
	h.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", svc.format)
	assert.Equal(t, `attachment; filename="credits-21CS001.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Vertical,Completed\n", rec.Body.String())
}

func TestCreditHandlerExportBadFormat(t *testing.T) {
	svc := &fakeCreditService{err: appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")}
	h := NewCreditHandler(svc, &fakeBasketCreditService{})

	c, rec := newContext(http.MethodGet, "/students/stu-1/credits/export?format=xls", nil)
	withIdentity(c, &models.Identity{ID: "stu-1", Type: models.IdentityStudent})
	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestCreditHandlerBasketCreditsFiltered(t *testing.T) {
	baskets := &fakeBasketCreditService{resp: &dto.BasketCreditResponse{Filtered: true, TotalCredits: 5.5}}
	h := NewCreditHandler(&fakeCreditService{}, baskets)

	c, rec := newContext(http.MethodGet, "/basket-credits?semester=3&type=Theory&degree=B.Tech", nil)
	h.BasketCredits(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, baskets.filter.Semester)
	assert.Equal(t, 3, *baskets.filter.Semester)
	assert.Equal(t, models.CourseTypeTheory, baskets.filter.Type)
	assert.Equal(t, "B.Tech", baskets.filter.Degree)

	envelope := decode(t, rec)
	assert.Equal(t, true, envelope.Meta["filtered"])
	assert.Equal(t, 5.5, envelope.Data["total_credits"])
}

func TestCreditHandlerBasketCreditsRejectsBadQuery(t *testing.T) {
	h := NewCreditHandler(&fakeCreditService{}, &fakeBasketCreditService{})

	for _, target := range []string{"/basket-credits?semester=three", "/basket-credits?type=Lab", "/basket-credits?semester=0", "/basket-credits?semester=9"} {
		c, rec := newContext(http.MethodGet, target, nil)
		h.BasketCredits(c)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestCreditHandlerExportLink(t *testing.T) {
	svc := &fakeCreditService{link: &dto.ExportLink{Token: "tok", Format: "pdf", ExpiresAt: time.Now().Add(time.Minute)}}
	h := NewCreditHandler(svc, &fakeBasketCreditService{})

	c, rec := newContext(http.MethodPost, "/students/stu-1/credits/export-link?format=pdf", nil)
	c.AddParam("id", "stu-1")
	withIdentity(c, &models.Identity{ID: "stu-1", Type: models.IdentityStudent})
	h.ExportLink(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "pdf", svc.format)
	envelope := decode(t, rec)
	assert.Equal(t, "/exports/tok", envelope.Data["url"])
	assert.Equal(t, "tok", envelope.Data["token"])
}

func TestCreditHandlerDownload(t *testing.T) {
	svc := &fakeCreditService{file: &dto.ExportFile{Filename: "credits-21CS001.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}}
	h := NewCreditHandler(svc, &fakeBasketCreditService{})

	c, rec := newContext(http.MethodGet, "/exports/tok", nil)
	c.AddParam("token", "tok")
	h.Download(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", svc.token)
	assert.Equal(t, `attachment; filename="credits-21CS001.pdf"`, rec.Header().Get("Content-Disposition"))

	svc = &fakeCreditService{err: appErrors.Clone(appErrors.ErrInvalidToken, "export link expired")}
	h = NewCreditHandler(svc, &fakeBasketCreditService{})
	c, rec = newContext(http.MethodGet, "/exports/old", nil)
	c.AddParam("token", "old")
	h.Download(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
