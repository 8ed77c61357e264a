package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"coco-admissions-platform/internal/vectorstore"
	"coco-admissions-platform/models"
)

// fakeCatalog serves a small in-memory entity graph:
// organization 1 > campus 2 > college 5 > department 9 > program 7,
// with funding 12 attached to the department and to researcher 42.
type fakeCatalog struct {
	student    models.UserDetails
	researcher models.UserDetails
}

func intp(v int) *int { return &v }

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		student: models.UserDetails{
			UserID:    1,
			FirstName: "Ada",
			LastName:  "Lovelace",
			UserType:  "Student",
			Groups:    []string{"Student"},
			Publications: []models.Publication{
				{Title: "Notes on the Analytical Engine", Abstract: "Early computing."},
			},
		},
		researcher: models.UserDetails{
			UserID:         42,
			FirstName:      "Grace",
			LastName:       "Hopper",
			UserType:       "Professor",
			DepartmentID:   intp(9),
			CollegeID:      intp(5),
			CampusID:       intp(2),
			OrganizationID: intp(1),
			CurrentCity:    "Boston",
		},
	}
}

func (f *fakeCatalog) OrganizationByID(_ context.Context, id int) (*models.Organization, error) {
	if id != 1 {
		return nil, nil
	}
	return &models.Organization{
		ID: 1, Name: "State University", City: "Boston",
		StateProvinceName: "Massachusetts", CountryName: "USA", CountryCode: "US",
	}, nil
}

func (f *fakeCatalog) CampusByID(_ context.Context, id int) (*models.Campus, error) {
	if id != 2 {
		return nil, nil
	}
	return &models.Campus{ID: 2, OrganizationID: 1, CampusName: "Main Campus"}, nil
}

func (f *fakeCatalog) CollegeByID(_ context.Context, id int) (*models.College, error) {
	if id != 5 {
		return nil, nil
	}
	return &models.College{ID: 5, CampusID: 2, Name: "Engineering", Statement: "We build things."}, nil
}

func (f *fakeCatalog) DepartmentByID(_ context.Context, id int) (*models.Department, error) {
	if id != 9 {
		return nil, nil
	}
	return &models.Department{ID: 9, CollegeID: 5, Name: "Computer Science", Statement: "Code and theory."}, nil
}

func (f *fakeCatalog) ProgramByID(_ context.Context, id int) (*models.Program, error) {
	if id != 7 {
		return nil, nil
	}
	return &models.Program{
		ID: 7, DepartmentID: 9, Title: "MSc Computer Science",
		Description:         "<p>Systems and theory</p>",
		EligibilityCriteria: "IELTS 6.5 and CGPA 3.0",
		ApplicationEndDate:  "2026-12-01",
		ApplicationFee:      75,
	}, nil
}

func (f *fakeCatalog) Colleges(ctx context.Context) ([]models.College, error) {
	c, _ := f.CollegeByID(ctx, 5)
	return []models.College{*c}, nil
}

func (f *fakeCatalog) Departments(ctx context.Context) ([]models.Department, error) {
	d, _ := f.DepartmentByID(ctx, 9)
	return []models.Department{*d}, nil
}

func (f *fakeCatalog) Programs(ctx context.Context) ([]models.Program, error) {
	p, _ := f.ProgramByID(ctx, 7)
	return []models.Program{*p}, nil
}

func (f *fakeCatalog) DepartmentsByCollege(ctx context.Context, collegeID int) ([]models.Department, error) {
	if collegeID != 5 {
		return nil, nil
	}
	return f.Departments(ctx)
}

func (f *fakeCatalog) ProgramsByDepartment(ctx context.Context, departmentID int) ([]models.Program, error) {
	if departmentID != 9 {
		return nil, nil
	}
	return f.Programs(ctx)
}

func (f *fakeCatalog) FundingsByDepartment(_ context.Context, departmentID int) ([]models.Funding, error) {
	if departmentID != 9 {
		return nil, nil
	}
	return []models.Funding{{
		ID: 12, TitleOfFunding: "Dean's Fellowship", FundingFor: "Dept",
		FundingOpportunityFor: "International", FundingType: "Fellowship",
		Description: "Covers tuition",
	}}, nil
}

func (f *fakeCatalog) FundingsByFacultyUser(_ context.Context, userID int) ([]models.Funding, error) {
	if userID != 42 {
		return nil, nil
	}
	return []models.Funding{{
		ID: 12, TitleOfFunding: "RA Position", FundingFor: "Faculty",
		FundingOpportunityFor: "Both", FundingType: "RA",
		Description: "Lab assistantship",
	}}, nil
}

func (f *fakeCatalog) UserByID(_ context.Context, userID int) (*models.UserDetails, error) {
	switch userID {
	case 1:
		u := f.student
		return &u, nil
	case 42:
		u := f.researcher
		return &u, nil
	}
	return nil, nil
}

func (f *fakeCatalog) UsersByGroup(_ context.Context, group string) ([]models.UserDetails, error) {
	if group != "Student" {
		return nil, nil
	}
	return []models.UserDetails{f.student}, nil
}

func (f *fakeCatalog) UsersByTypes(_ context.Context, _ []string) ([]models.UserDetails, error) {
	return []models.UserDetails{f.researcher}, nil
}

// fakeEmbedder returns a fixed vector, optionally failing on documents
// containing a marker substring.
type fakeEmbedder struct {
	failOn string
	calls  int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.New("embedding backend unavailable")
	}
	return []float32{1, 0}, nil
}

func newTestIngestor(t *testing.T, embedder *fakeEmbedder) (*Ingestor, *vectorstore.Store) {
	t.Helper()
	store, err := vectorstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ing := NewIngestor(store, embedder, newFakeCatalog(),
		NewMetadataExtractor(nil), NewTextLoader(nil, nil), t.TempDir(), nil)
	return ing, store
}

func TestIngestAll(t *testing.T) {
	ing, store := newTestIngestor(t, &fakeEmbedder{})

	reports, err := ing.IngestAll(context.Background())
	if err != nil {
		t.Fatalf("IngestAll: %v", err)
	}
	if len(reports) != 5 {
		t.Fatalf("len(reports) = %d, want 5", len(reports))
	}
	for _, report := range reports {
		if report.Written != 1 || report.Skipped != 0 {
			t.Errorf("%s: written=%d skipped=%d, want 1/0", report.Collection, report.Written, report.Skipped)
		}
	}

	programs, _ := store.GetOrCreateCollection(ProgramCollection)
	rec, err := programs.Get("program_7")
	if err != nil {
		t.Fatalf("program record: %v", err)
	}
	if !strings.Contains(rec.Document, "Program Description") ||
		!strings.Contains(rec.Document, "Funding Details") {
		t.Errorf("program document = %q", rec.Document)
	}
	if rec.Metadata["IELTS"] != 6.5 || rec.Metadata["CGPA"] != 3.0 {
		t.Errorf("program criteria metadata: %#v", rec.Metadata)
	}
	if rec.Metadata["funding_available"] != "True" {
		t.Errorf("funding_available = %#v", rec.Metadata["funding_available"])
	}
	if _, ok := rec.Metadata["program_description"]; ok {
		t.Error("program_description belongs in the document, not the metadata")
	}

	students, _ := store.GetOrCreateCollection(StudentUserCollection)
	student, err := students.Get("1")
	if err != nil {
		t.Fatalf("student record: %v", err)
	}
	if !strings.Contains(student.Document, "Notes on the Analytical Engine") {
		t.Errorf("student document should carry publications: %q", student.Document)
	}
	if student.Metadata["first_name"] != "Ada" {
		t.Errorf("student metadata: %#v", student.Metadata)
	}
	if _, ok := student.Metadata["publication_0_title"]; ok {
		t.Error("publication keys should be filtered from student metadata")
	}

	researchers, _ := store.GetOrCreateCollection(ResearcherUserCollection)
	researcher, err := researchers.Get("42")
	if err != nil {
		t.Fatalf("researcher record: %v", err)
	}
	if researcher.Metadata["name"] != "Grace Hopper" {
		t.Errorf("researcher name = %#v", researcher.Metadata["name"])
	}
	if researcher.Metadata["funding_available"] != "True" {
		t.Errorf("researcher funding_available = %#v", researcher.Metadata["funding_available"])
	}
	if researcher.Metadata["funding_type"] != "RA" {
		t.Errorf("researcher funding_type = %#v", researcher.Metadata["funding_type"])
	}
	if researcher.Metadata["department_name"] != "Computer Science" {
		t.Errorf("researcher department_name = %#v", researcher.Metadata["department_name"])
	}
	if !strings.Contains(researcher.Document, "Funding Details") {
		t.Errorf("researcher document should carry funding text: %q", researcher.Document)
	}

	colleges, _ := store.GetOrCreateCollection(CollegeCollection)
	college, err := colleges.Get("college_5")
	if err != nil {
		t.Fatalf("college record: %v", err)
	}
	if college.Document != "We build things." {
		t.Errorf("college document = %q", college.Document)
	}

	departments, _ := store.GetOrCreateCollection(DepartmentCollection)
	if _, err := departments.Get("dept_9"); err != nil {
		t.Fatalf("department record: %v", err)
	}
}

func TestIngestSkipsFailedEmbeddings(t *testing.T) {
	ing, store := newTestIngestor(t, &fakeEmbedder{failOn: "We build things."})

	report, err := ing.IngestColleges(context.Background())
	if err != nil {
		t.Fatalf("IngestColleges: %v", err)
	}
	if report.Written != 0 || report.Skipped != 1 {
		t.Errorf("written=%d skipped=%d, want 0/1", report.Written, report.Skipped)
	}

	colleges, _ := store.GetOrCreateCollection(CollegeCollection)
	if colleges.Count() != 0 {
		t.Errorf("failed embedding should leave no record, Count = %d", colleges.Count())
	}
}

// Re-running a full rebuild replaces the collection instead of appending.
func TestIngestIdempotentRebuild(t *testing.T) {
	ing, store := newTestIngestor(t, &fakeEmbedder{})

	if _, err := ing.IngestPrograms(context.Background()); err != nil {
		t.Fatalf("first rebuild: %v", err)
	}
	if _, err := ing.IngestPrograms(context.Background()); err != nil {
		t.Fatalf("second rebuild: %v", err)
	}

	programs, _ := store.GetOrCreateCollection(ProgramCollection)
	if programs.Count() != 1 {
		t.Errorf("Count = %d after two rebuilds, want 1", programs.Count())
	}
}
