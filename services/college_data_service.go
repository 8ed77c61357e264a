package services

import (
	"context"
	"fmt"

	"coco-admissions-platform/internal/database"
	"coco-admissions-platform/internal/logger"
	"coco-admissions-platform/models"
)

// CollegeGraph is the typed entity tree rooted at a college: its departments
// (each with their programs) and the chain up to the organization.
type CollegeGraph struct {
	College      *models.College
	Departments  []DepartmentNode
	Campus       *models.Campus
	Organization *models.Organization
}

// DepartmentNode pairs a department with the programs it offers.
type DepartmentNode struct {
	Department models.Department
	Programs   []models.Program
}

// CollegeDataService assembles and flattens the entity graph for colleges.
type CollegeDataService struct {
	catalog database.Catalog
}

func NewCollegeDataService(catalog database.Catalog) *CollegeDataService {
	return &CollegeDataService{catalog: catalog}
}

// FullData fetches the college's related graph; a missing college yields a
// structurally complete graph with every link nil.
func (s *CollegeDataService) FullData(ctx context.Context, collegeID int) (*CollegeGraph, error) {
	graph := &CollegeGraph{}

	college, err := s.catalog.CollegeByID(ctx, collegeID)
	if err != nil {
		return nil, fmt.Errorf("fetch college %d: %w", collegeID, err)
	}
	if college == nil {
		return graph, nil
	}
	graph.College = college

	departments, err := s.catalog.DepartmentsByCollege(ctx, college.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch departments for college %d: %w", college.ID, err)
	}
	for i := range departments {
		programs, err := s.catalog.ProgramsByDepartment(ctx, departments[i].ID)
		if err != nil {
			return nil, fmt.Errorf("fetch programs for department %d: %w", departments[i].ID, err)
		}
		graph.Departments = append(graph.Departments, DepartmentNode{
			Department: departments[i],
			Programs:   programs,
		})
	}

	graph.Campus, err = s.catalog.CampusByID(ctx, college.CampusID)
	if err != nil {
		return nil, fmt.Errorf("fetch campus %d: %w", college.CampusID, err)
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
func (s *CollegeDataService) FlatData(ctx context.Context, collegeID int) (FlatRecord, error) {
	graph, err := s.FullData(ctx, collegeID)
	if err != nil {
		return nil, err
	}
	return graph.Flatten(), nil
}

func (g *CollegeGraph) Flatten() FlatRecord {
	flat := FlatRecord{}
	if g.College != nil {
		mergeFlat(flat, Flatten(g.College.Record(), fmt.Sprintf("college_%d_", g.College.ID)))
	}
	for i := range g.Departments {
		node := &g.Departments[i]
		mergeFlat(flat, Flatten(node.Department.Record(), fmt.Sprintf("department_%d_", node.Department.ID)))
		for j := range node.Programs {
			p := &node.Programs[j]
			mergeFlat(flat, Flatten(p.Record(), fmt.Sprintf("program_%d_", p.ID)))
		}
	}
	if g.Campus != nil {
		mergeFlat(flat, Flatten(g.Campus.Record(), fmt.Sprintf("campus_%d_", g.Campus.ID)))
	}
	if g.Organization != nil {
		mergeFlat(flat, Flatten(g.Organization.Record(), fmt.Sprintf("organization_%d_", g.Organization.ID)))
	}
	return flat
}

// AllFlatData flattens every college, isolating per-college failures.
func (s *CollegeDataService) AllFlatData(ctx context.Context) ([]FlatRecord, int, error) {
	colleges, err := s.catalog.Colleges(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list colleges: %w", err)
	}

	records := make([]FlatRecord, 0, len(colleges))
	skipped := 0
	for i := range colleges {
		flat, err := s.FlatData(ctx, colleges[i].ID)
		if err != nil {
			logger.Error("flatten college failed, skipping", "college_id", colleges[i].ID, "error", err)
			skipped++
			continue
		}
		records = append(records, flat)
	}
	return records, skipped, nil
}
