package services

import (
	"context"
	"fmt"

	"coco-admissions-platform/internal/database"
	"coco-admissions-platform/internal/logger"
	"coco-admissions-platform/models"
)

// ResearchRoles selects the researcher ingestion population.
var ResearchRoles = []string{
	"Professor", "Researcher", "Lecturer", "Assistant Professor",
	"Associate Professor",
	"Postdoctoral Researcher", "Visiting Scholar", "Clinical Faculty",
	"Adjunct Faculty", "Faculty Emeritus",
}

// UserRecord is the assembled ingestion view of one user: the flat scalar
// profile (including publication_{i}_title/abstract keys) plus the resume and
// SOP file references that are loaded separately.
type UserRecord struct {
	User   *models.UserDetails
	Flat   FlatRecord
	Resume []models.FileRef
	SOP    []models.FileRef
}

// UserDataService assembles user profiles for ingestion, resolving
// affiliation ids to names through the catalog.
type UserDataService struct {
	catalog database.Catalog
}

func NewUserDataService(catalog database.Catalog) *UserDataService {
	return &UserDataService{catalog: catalog}
}

// Record builds the flat ingestion view for one user.
func (s *UserDataService) Record(ctx context.Context, user *models.UserDetails) (*UserRecord, error) {
	flat := Flatten(user.Record(), "")

	for i, pub := range user.Publications {
		flat[fmt.Sprintf("publication_%d_title", i)] = pub.Title
		flat[fmt.Sprintf("publication_%d_abstract", i)] = pub.Abstract
	}

	if err := s.resolveAffiliationNames(ctx, user, flat); err != nil {
		return nil, err
	}

	return &UserRecord{
		User:   user,
		Flat:   flat,
		Resume: user.Resume,
		SOP:    user.SOP,
	}, nil
}

// resolveAffiliationNames adds department_name, college_name, campus_name and
// organization_name for whichever affiliation foreign keys the user has set.
func (s *UserDataService) resolveAffiliationNames(ctx context.Context, user *models.UserDetails, flat FlatRecord) error {
	if user.DepartmentID != nil {
		dept, err := s.catalog.DepartmentByID(ctx, *user.DepartmentID)
		if err != nil {
			return fmt.Errorf("resolve department %d: %w", *user.DepartmentID, err)
		}
		if dept != nil {
			flat["department_name"] = dept.Name
		}
	}
	if user.CollegeID != nil {
		college, err := s.catalog.CollegeByID(ctx, *user.CollegeID)
		if err != nil {
			return fmt.Errorf("resolve college %d: %w", *user.CollegeID, err)
		}
		if college != nil {
			flat["college_name"] = college.Name
		}
	}
	if user.CampusID != nil {
		campus, err := s.catalog.CampusByID(ctx, *user.CampusID)
		if err != nil {
			return fmt.Errorf("resolve campus %d: %w", *user.CampusID, err)
		}
		if campus != nil {
			flat["campus_name"] = campus.CampusName
		}
	}
	if user.OrganizationID != nil {
		org, err := s.catalog.OrganizationByID(ctx, *user.OrganizationID)
		if err != nil {
			return fmt.Errorf("resolve organization %d: %w", *user.OrganizationID, err)
		}
		if org != nil {
			flat["organization_name"] = org.Name
		}
	}
	return nil
}

// AllStudents returns ingestion records for every user in the Student group.
// Per-user failures are logged and skipped.
func (s *UserDataService) AllStudents(ctx context.Context) ([]UserRecord, int, error) {
	users, err := s.catalog.UsersByGroup(ctx, "Student")
	if err != nil {
		return nil, 0, fmt.Errorf("list student users: %w", err)
	}
	return s.buildRecords(ctx, users)
}

// AllResearchers returns ingestion records for every user whose type is one
// of the research roles.
func (s *UserDataService) AllResearchers(ctx context.Context) ([]UserRecord, int, error) {
	users, err := s.catalog.UsersByTypes(ctx, ResearchRoles)
	if err != nil {
		return nil, 0, fmt.Errorf("list researcher users: %w", err)
	}
	return s.buildRecords(ctx, users)
}

func (s *UserDataService) buildRecords(ctx context.Context, users []models.UserDetails) ([]UserRecord, int, error) {
	records := make([]UserRecord, 0, len(users))
	skipped := 0
	for i := range users {
		rec, err := s.Record(ctx, &users[i])
		if err != nil {
			logger.Error("build user record failed, skipping", "user_id", users[i].UserID, "error", err)
			skipped++
			continue
		}
		records = append(records, *rec)
	}
	return records, skipped, nil
}
