package services

import (
	"context"
	"fmt"

	"coco-admissions-platform/internal/database"
	"coco-admissions-platform/internal/logger"
	"coco-admissions-platform/models"
)

// ProgramGraph is the typed entity tree a program hangs off: the program
// itself, its department's fundings, and the chain up to the organization.
// Any link may be nil when the source record is missing or dangling.
type ProgramGraph struct {
	Program      *models.Program
	Fundings     []models.Funding
	Department   *models.Department
	College      *models.College
	Campus       *models.Campus
	Organization *models.Organization
}

// ProgramDataService assembles and flattens the entity graph for programs.
type ProgramDataService struct {
	catalog database.Catalog
}

func NewProgramDataService(catalog database.Catalog) *ProgramDataService {
	return &ProgramDataService{catalog: catalog}
}

// FullData fetches the program's related graph. A missing program yields a
// structurally complete graph with every link nil, never an error, so
// downstream flattening code does not special-case not-found.
func (s *ProgramDataService) FullData(ctx context.Context, programID int) (*ProgramGraph, error) {
	graph := &ProgramGraph{}

	program, err := s.catalog.ProgramByID(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("fetch program %d: %w", programID, err)
	}
	if program == nil {
		return graph, nil
	}
	graph.Program = program

	graph.Department, err = s.catalog.DepartmentByID(ctx, program.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("fetch department %d: %w", program.DepartmentID, err)
	}
	if graph.Department == nil {
		return graph, nil
	}

	graph.Fundings, err = s.catalog.FundingsByDepartment(ctx, graph.Department.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch fundings for department %d: %w", graph.Department.ID, err)
	}

	graph.College, err = s.catalog.CollegeByID(ctx, graph.Department.CollegeID)
	if err != nil {
		return nil, fmt.Errorf("fetch college %d: %w", graph.Department.CollegeID, err)
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

// FlatData flattens the full graph with one {type}_{id}_ prefix per entity.
func (s *ProgramDataService) FlatData(ctx context.Context, programID int) (FlatRecord, error) {
	graph, err := s.FullData(ctx, programID)
	if err != nil {
		return nil, err
	}
	return graph.Flatten(), nil
}

// Flatten serializes every present entity in the graph under its own prefix.
func (g *ProgramGraph) Flatten() FlatRecord {
	flat := FlatRecord{}
	if g.Program != nil {
		mergeFlat(flat, Flatten(g.Program.Record(), fmt.Sprintf("program_%d_", g.Program.ID)))
	}
	for i := range g.Fundings {
		f := &g.Fundings[i]
		mergeFlat(flat, Flatten(f.Record(), fmt.Sprintf("funding_%d_", f.ID)))
	}
	if g.Department != nil {
		mergeFlat(flat, Flatten(g.Department.Record(), fmt.Sprintf("department_%d_", g.Department.ID)))
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

// AllFlatData flattens every program. Failures are isolated per program:
// the bad entity is logged and skipped, the rest of the batch continues.
func (s *ProgramDataService) AllFlatData(ctx context.Context) ([]FlatRecord, int, error) {
	programs, err := s.catalog.Programs(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list programs: %w", err)
	}

	records := make([]FlatRecord, 0, len(programs))
	skipped := 0
	for i := range programs {
		flat, err := s.FlatData(ctx, programs[i].ID)
		if err != nil {
			logger.Error("flatten program failed, skipping", "program_id", programs[i].ID, "error", err)
			skipped++
			continue
		}
		records = append(records, flat)
	}
	return records, skipped, nil
}

func mergeFlat(dst FlatRecord, src FlatRecord) {
	for k, v := range src {
		dst[k] = v
	}
}
