package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/credit-tracker-api/internal/dto"
	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/internal/repository"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

type fakeStudentRepo struct {
	mu       sync.Mutex
	students map[string]*models.Student
	created  []*models.Student
}

func newFakeStudentRepo(students ...*models.Student) *fakeStudentRepo {
	repo := &fakeStudentRepo{students: make(map[string]*models.Student)}
	for _, s := range students {
		repo.students[s.ID] = s
	}
	return repo
}

func (f *fakeStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStudentRepo) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.students {
		if strings.EqualFold(s.Email, email) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Student
	for _, s := range f.students {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeStudentRepo) Create(ctx context.Context, student *models.Student) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.students {
		if strings.EqualFold(s.Email, student.Email) || s.RollNumber == student.RollNumber {
			return fmt.Errorf("create student: %w", repository.ErrDuplicate)
		}
	}
	if student.ID == "" {
		student.ID = fmt.Sprintf("stu-%d", len(f.students)+1)
	}
	cp := *student
	f.students[student.ID] = &cp
	f.created = append(f.created, &cp)
	return nil
}

func (f *fakeStudentRepo) Update(ctx context.Context, student *models.Student) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.students[student.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *student
	f.students[student.ID] = &cp
	return nil
}

func (f *fakeStudentRepo) UpdateSemester(ctx context.Context, id string, semester int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.Semester = &semester
	return nil
}

func (f *fakeStudentRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (f *fakeStudentRepo) Deactivate(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.Active = false
	return nil
}

func (f *fakeStudentRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.students, id)
	return nil
}

type fakeCourseRepo struct {
	mu      sync.Mutex
	courses map[string]*models.Course
	seq     int
}

func newFakeCourseRepo(courses ...*models.Course) *fakeCourseRepo {
	repo := &fakeCourseRepo{courses: make(map[string]*models.Course)}
	for _, c := range courses {
		repo.courses[c.ID] = c
	}
	return repo
}

func (f *fakeCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCourseRepo) matching(filter models.CourseFilter) []models.Course {
	var out []models.Course
	for _, c := range f.courses {
		if filter.Semester != nil && c.Semester != *filter.Semester {
			continue
		}
		if filter.Type != "" && c.Type != filter.Type {
			continue
		}
		if filter.VerticalID != "" && c.VerticalID != filter.VerticalID {
			continue
		}
		if filter.BasketID != "" && c.BasketID != filter.BasketID {
			continue
		}
		if filter.Degree != "" && c.Degree != filter.Degree {
			continue
		}
		if filter.Branch != "" && c.Branch != filter.Branch {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.Title+" "+c.Code), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Semester != out[j].Semester {
			return out[i].Semester < out[j].Semester
		}
		return out[i].Code < out[j].Code
	})
	return out
}

func (f *fakeCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.matching(filter)
	return out, len(out), nil
}

func (f *fakeCourseRepo) FindAll(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.matching(filter), nil
}

func (f *fakeCourseRepo) CountByCodePrefix(ctx context.Context, prefix string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, c := range f.courses {
		if strings.HasPrefix(c.Code, prefix) {
			count++
		}
	}
	return count, nil
}

func (f *fakeCourseRepo) Create(ctx context.Context, course *models.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.courses {
		if c.Code == course.Code {
			return fmt.Errorf("create course: %w", repository.ErrDuplicate)
		}
	}
	if course.ID == "" {
		f.seq++
		course.ID = fmt.Sprintf("course-%d", f.seq)
	}
	cp := *course
	f.courses[course.ID] = &cp
	return nil
}

func (f *fakeCourseRepo) Update(ctx context.Context, course *models.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.courses[course.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *course
	f.courses[course.ID] = &cp
	return nil
}

func (f *fakeCourseRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.courses[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.courses, id)
	return nil
}

// fakeLedger enforces the (student, course) uniqueness the database provides.
type fakeLedger struct {
	mu      sync.Mutex
	rows    map[string]models.CompletedCourse
	courses *fakeCourseRepo
	inserts int
}

func newFakeLedger(courses *fakeCourseRepo) *fakeLedger {
	return &fakeLedger{rows: make(map[string]models.CompletedCourse), courses: courses}
}

func ledgerKey(studentID, courseID string) string { return studentID + "/" + courseID }

func (f *fakeLedger) Insert(ctx context.Context, completion *models.CompletedCourse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ledgerKey(completion.StudentID, completion.CourseID)
	if _, ok := f.rows[key]; ok {
		return fmt.Errorf("insert completion: %w", repository.ErrDuplicateCompletion)
	}
	f.inserts++
	completion.ID = fmt.Sprintf("cc-%d", f.inserts)
	completion.CompletedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f.rows[key] = *completion
	return nil
}

func (f *fakeLedger) Delete(ctx context.Context, studentID, courseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, ledgerKey(studentID, courseID))
	return nil
}

func (f *fakeLedger) ListByStudent(ctx context.Context, studentID string) ([]models.CompletionDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CompletionDetail
	for _, row := range f.rows {
		if row.StudentID != studentID {
			continue
		}
		detail := models.CompletionDetail{CompletedCourse: row}
		if f.courses != nil {
			if c, err := f.courses.FindByID(ctx, row.CourseID); err == nil {
				detail.CourseCode = c.Code
				detail.CourseTitle = c.Title
				detail.CourseType = c.Type
				detail.VerticalID = c.VerticalID
				detail.VerticalName = c.VerticalName
				detail.BasketID = c.BasketID
				detail.BasketName = c.BasketName
			}
		}
		out = append(out, detail)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseID < out[j].CourseID })
	return out, nil
}

func (f *fakeLedger) CountByCourse(ctx context.Context, courseID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, row := range f.rows {
		if row.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (f *fakeLedger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeProgramRepo struct {
	verticals    []models.Vertical
	baskets      []models.Basket
	requirements []models.ProgramRequirement
	listCalls    int
	reqCalls     int
}

func (f *fakeProgramRepo) ListVerticals(ctx context.Context) ([]models.Vertical, error) {
	f.listCalls++
	out := make([]models.Vertical, len(f.verticals))
	copy(out, f.verticals)
	return out, nil
}

func (f *fakeProgramRepo) ListBaskets(ctx context.Context) ([]models.Basket, error) {
	return f.baskets, nil
}

func (f *fakeProgramRepo) FindVertical(ctx context.Context, id string) (*models.Vertical, error) {
	for _, v := range f.verticals {
		if v.ID == id {
			cp := v
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeProgramRepo) FindBasket(ctx context.Context, id string) (*models.Basket, error) {
	for _, b := range f.baskets {
		if b.ID == id {
			cp := b
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeProgramRepo) CreateVertical(ctx context.Context, vertical *models.Vertical) error {
	for _, v := range f.verticals {
		if v.Code == vertical.Code {
			return repository.ErrDuplicate
		}
	}
	vertical.ID = "v-" + strings.ToLower(vertical.Code)
	f.verticals = append(f.verticals, *vertical)
	return nil
}

func (f *fakeProgramRepo) CreateBasket(ctx context.Context, basket *models.Basket) error {
	basket.ID = "b-" + strings.ToLower(basket.Code)
	f.baskets = append(f.baskets, *basket)
	return nil
}

func (f *fakeProgramRepo) ListRequirements(ctx context.Context, filter models.RequirementFilter) ([]models.ProgramRequirement, error) {
	f.reqCalls++
	var out []models.ProgramRequirement
	for _, r := range f.requirements {
		if filter.VerticalID != "" && r.VerticalID != filter.VerticalID {
			continue
		}
		if filter.Semester != nil && r.Semester != *filter.Semester {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeProgramRepo) UpsertRequirement(ctx context.Context, req *models.ProgramRequirement) error {
	for i, r := range f.requirements {
		sameBasket := (r.BasketID == nil && req.BasketID == nil) ||
			(r.BasketID != nil && req.BasketID != nil && *r.BasketID == *req.BasketID)
		if r.VerticalID == req.VerticalID && sameBasket && r.Semester == req.Semester {
			f.requirements[i].RequiredCredits = req.RequiredCredits
			req.ID = r.ID
			return nil
		}
	}
	req.ID = fmt.Sprintf("req-%d", len(f.requirements)+1)
	f.requirements = append(f.requirements, *req)
	return nil
}

type fakeBasketTotals struct {
	rows  []dto.BasketCreditRow
	calls int
}

func (f *fakeBasketTotals) Totals(ctx context.Context) ([]dto.BasketCreditRow, error) {
	f.calls++
	out := make([]dto.BasketCreditRow, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

// catalog fixture: two verticals, three baskets.
func sampleProgram() *fakeProgramRepo {
	return &fakeProgramRepo{
		verticals: []models.Vertical{
			{ID: "v-pc", Code: "PC", Name: "Program Core", DisplayOrder: 1},
			{ID: "v-bs", Code: "BS", Name: "Basic Science", DisplayOrder: 2},
		},
		baskets: []models.Basket{
			{ID: "b-pc-core", VerticalID: "v-pc", Code: "CORE", Name: "Core"},
			{ID: "b-pc-lab", VerticalID: "v-pc", Code: "LAB", Name: "Labs"},
			{ID: "b-bs-math", VerticalID: "v-bs", Code: "MATH", Name: "Mathematics"},
		},
		requirements: []models.ProgramRequirement{
			{ID: "r1", VerticalID: "v-pc", Semester: 3, RequiredCredits: 8},
			{ID: "r2", VerticalID: "v-pc", Semester: 5, RequiredCredits: 8},
			{ID: "r3", VerticalID: "v-pc", BasketID: strPtr("b-pc-core"), Semester: 3, RequiredCredits: 6},
			{ID: "r4", VerticalID: "v-pc", BasketID: strPtr("b-pc-lab"), Semester: 3, RequiredCredits: 2},
		},
	}
}

func sampleCourses() *fakeCourseRepo {
	return newFakeCourseRepo(
		&models.Course{ID: "c-ds", Code: "CSPC301T", Title: "Data Structures", Type: models.CourseTypeTheory, Credits: 4, Semester: 3,
			VerticalID: "v-pc", VerticalName: "Program Core", BasketID: "b-pc-core", BasketName: "Core", Degree: "B.Tech", Branch: "Computer Science"},
		&models.Course{ID: "c-dslab", Code: "CSPC302P", Title: "Data Structures Lab", Type: models.CourseTypePractical, Credits: 1.5, Semester: 3,
			VerticalID: "v-pc", VerticalName: "Program Core", BasketID: "b-pc-lab", BasketName: "Labs", Degree: "B.Tech", Branch: "Computer Science"},
		&models.Course{ID: "c-os", Code: "CSPC401T", Title: "Operating Systems", Type: models.CourseTypeTheory, Credits: 4, Semester: 4,
			VerticalID: "v-pc", VerticalName: "Program Core", BasketID: "b-pc-core", BasketName: "Core", Degree: "B.Tech", Branch: "Computer Science"},
		&models.Course{ID: "c-calc", Code: "CSBS101T", Title: "Calculus", Type: models.CourseTypeTheory, Credits: 3, Semester: 1,
			VerticalID: "v-bs", VerticalName: "Basic Science", BasketID: "b-bs-math", BasketName: "Mathematics", Degree: "B.Tech", Branch: "Computer Science"},
	)
}

func studentIdentity(id string) *models.Identity {
	return &models.Identity{ID: id, Type: models.IdentityStudent}
}

func adminIdentity(role string, perms ...string) *models.Identity {
	return &models.Identity{ID: "admin-1", Type: models.IdentityAdmin, Role: role, Permissions: perms}
}
