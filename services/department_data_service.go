package services

import (
	"context"
	"fmt"

	"coco-admissions-platform/internal/database"
	"coco-admissions-platform/internal/logger"
	"coco-admissions-platform/models"
)

// DepartmentGraph is the typed entity tree rooted at a department: its
// programs and the chain up to the organization.
type DepartmentGraph struct {
	Department   *models.Department
	Programs     []models.Program
	College      *models.College
	Campus       *models.Campus
	Organization *models.Organization
}

// DepartmentDataService assembles and flattens the entity graph for
// departments.
type DepartmentDataService struct {
	catalog database.Catalog
}

func NewDepartmentDataService(catalog database.Catalog) *DepartmentDataService {
	return &DepartmentDataService{catalog: catalog}
}

func (s *DepartmentDataService) FullData(ctx context.Context, departmentID int) (*DepartmentGraph, error) {
	graph := &DepartmentGraph{}

	department, err := s.catalog.DepartmentByID(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("fetch department %d: %w", departmentID, err)
	}
	if department == nil {
		return graph, nil
	}
	graph.Department = department

	graph.Programs, err = s.catalog.ProgramsByDepartment(ctx, department.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch programs for department %d: %w", department.ID, err)
	}

	graph.College, err = s.catalog.CollegeByID(ctx, department.CollegeID)
	if err != nil {
		return nil, fmt.Errorf("fetch college %d: %w", department.CollegeID, err)
	}
	if graph.College == nil {
		return graph, nil
	}

	graph.Campus, err = s.catalog.CampusByID(ctx, graph.College.CampusID)
	if err != nil {
		return nil, fmt.Errorf("fetch campus %d: %w", graph.College.CampusID, err)
	}
	if graph.Campus == nil {
		return graph, nil
	}

	graph.Organization, err = s.catalog.OrganizationByID(ctx, graph.Campus.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("fetch organization %d: %w", graph.Campus.OrganizationID, err)
	}

	return graph, nil
}

func (s *DepartmentDataService) FlatData(ctx context.Context, departmentID int) (FlatRecord, error) {
	graph, err := s.FullData(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	return graph.Flatten(), nil
}

func (g *DepartmentGraph) Flatten() FlatRecord {
	flat := FlatRecord{}
	if g.Department != nil {
		mergeFlat(flat, Flatten(g.Department.Record(), fmt.Sprintf("department_%d_", g.Department.ID)))
	}
	for i := range g.Programs {
		p := &g.Programs[i]
		mergeFlat(flat, Flatten(p.Record(), fmt.Sprintf("program_%d_", p.ID)))
	}
	if g.College != nil {
		mergeFlat(flat, Flatten(g.College.Record(), fmt.Sprintf("college_%d_", g.College.ID)))
	}
	if g.Campus != nil {
		mergeFlat(flat, Flatten(g.Campus.Record(), fmt.Sprintf("campus_%d_", g.Campus.ID)))
	}
	if g.Organization != nil {
		mergeFlat(flat, Flatten(g.Organization.Record(), fmt.Sprintf("organization_%d_", g.Organization.ID)))
	}
	return flat
}

// AllFlatData flattens every department, isolating per-department failures.
func (s *DepartmentDataService) AllFlatData(ctx context.Context) ([]FlatRecord, int, error) {
	departments, err := s.catalog.Departments(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list departments: %w", err)
	}

	records := make([]FlatRecord, 0, len(departments))
	skipped := 0
	for i := range departments {
		flat, err := s.FlatData(ctx, departments[i].ID)
		if err != nil {
			logger.Error("flatten department failed, skipping", "department_id", departments[i].ID, "error", err)
			skipped++
			continue
		}
		records = append(records, flat)
	}
	return records, skipped, nil
}
