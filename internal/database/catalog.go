// Package database exposes the read-only catalog repository over the
// relational source of truth (organizations, campuses, colleges,
// departments, programs, fundings, user profiles).
package database

import (
	"context"
	"errors"

	"coco-admissions-platform/internal/config"
	"coco-admissions-platform/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Catalog is the fetch-by-id / fetch-all surface the entity data services
// consume. Lookups for a missing id return (nil, nil): the data services
// degrade to structurally-empty records instead of propagating not-found.
type Catalog interface {
	OrganizationByID(ctx context.Context, id int) (*models.Organization, error)
	CampusByID(ctx context.Context, id int) (*models.Campus, error)
	CollegeByID(ctx context.Context, id int) (*models.College, error)
	DepartmentByID(ctx context.Context, id int) (*models.Department, error)
	ProgramByID(ctx context.Context, id int) (*models.Program, error)

	Colleges(ctx context.Context) ([]models.College, error)
	Departments(ctx context.Context) ([]models.Department, error)
	Programs(ctx context.Context) ([]models.Program, error)

	DepartmentsByCollege(ctx context.Context, collegeID int) ([]models.Department, error)
	ProgramsByDepartment(ctx context.Context, departmentID int) ([]models.Program, error)
	FundingsByDepartment(ctx context.Context, departmentID int) ([]models.Funding, error)
	FundingsByFacultyUser(ctx context.Context, userID int) ([]models.Funding, error)

	UserByID(ctx context.Context, userID int) (*models.UserDetails, error)
	UsersByGroup(ctx context.Context, group string) ([]models.UserDetails, error)
	UsersByTypes(ctx context.Context, userTypes []string) ([]models.UserDetails, error)
}

// MongoCatalog implements Catalog over MongoDB.
type MongoCatalog struct {
	db *mongo.Database
}

func NewMongoCatalog(client *mongo.Client, cfg *config.Config) *MongoCatalog {
	return &MongoCatalog{db: client.Database(cfg.DBName)}
}

func (m *MongoCatalog) OrganizationByID(ctx context.Context, id int) (*models.Organization, error) {
	var org models.Organization
	if err := m.findByID(ctx, "organizations", id, &org); err != nil {
		return nil, err
	}
	if org.ID == 0 {
		return nil, nil
	}
	return &org, nil
}

func (m *MongoCatalog) CampusByID(ctx context.Context, id int) (*models.Campus, error) {
	var campus models.Campus
	if err := m.findByID(ctx, "campuses", id, &campus); err != nil {
		return nil, err
	}
	if campus.ID == 0 {
		return nil, nil
	}
	return &campus, nil
}

func (m *MongoCatalog) CollegeByID(ctx context.Context, id int) (*models.College, error) {
	var college models.College
	if err := m.findByID(ctx, "colleges", id, &college); err != nil {
		return nil, err
	}
	if college.ID == 0 {
		return nil, nil
	}
	return &college, nil
}

func (m *MongoCatalog) DepartmentByID(ctx context.Context, id int) (*models.Department, error) {
	var dept models.Department
	if err := m.findByID(ctx, "departments", id, &dept); err != nil {
		return nil, err
	}
	if dept.ID == 0 {
		return nil, nil
	}
	return &dept, nil
}

func (m *MongoCatalog) ProgramByID(ctx context.Context, id int) (*models.Program, error) {
	var program models.Program
	if err := m.findByID(ctx, "programs", id, &program); err != nil {
		return nil, err
	}
	if program.ID == 0 {
		return nil, nil
	}
	return &program, nil
}

func (m *MongoCatalog) Colleges(ctx context.Context) ([]models.College, error) {
	var colleges []models.College
	err := m.findAll(ctx, "colleges", bson.M{}, &colleges)
	return colleges, err
}

func (m *MongoCatalog) Departments(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	err := m.findAll(ctx, "departments", bson.M{}, &departments)
	return departments, err
}

func (m *MongoCatalog) Programs(ctx context.Context) ([]models.Program, error) {
	var programs []models.Program
	err := m.findAll(ctx, "programs", bson.M{}, &programs)
	return programs, err
}

func (m *MongoCatalog) DepartmentsByCollege(ctx context.Context, collegeID int) ([]models.Department, error) {
	var departments []models.Department
	err := m.findAll(ctx, "departments", bson.M{"college_id": collegeID}, &departments)
	return departments, err
}

func (m *MongoCatalog) ProgramsByDepartment(ctx context.Context, departmentID int) ([]models.Program, error) {
	var programs []models.Program
	err := m.findAll(ctx, "programs", bson.M{"department_id": departmentID}, &programs)
	return programs, err
}

func (m *MongoCatalog) FundingsByDepartment(ctx context.Context, departmentID int) ([]models.Funding, error) {
	var fundings []models.Funding
	err := m.findAll(ctx, "fundings", bson.M{"funding_for_dept_id": departmentID}, &fundings)
	return fundings, err
}

func (m *MongoCatalog) FundingsByFacultyUser(ctx context.Context, userID int) ([]models.Funding, error) {
	var fundings []models.Funding
	err := m.findAll(ctx, "fundings", bson.M{"funding_for_faculty_user_id": userID}, &fundings)
	return fundings, err
}

func (m *MongoCatalog) UserByID(ctx context.Context, userID int) (*models.UserDetails, error) {
	var user models.UserDetails
	err := m.db.Collection("user_details").FindOne(ctx, bson.M{"user_id": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (m *MongoCatalog) UsersByGroup(ctx context.Context, group string) ([]models.UserDetails, error) {
	var users []models.UserDetails
	err := m.findAll(ctx, "user_details", bson.M{"groups": group}, &users)
	return users, err
}

func (m *MongoCatalog) UsersByTypes(ctx context.Context, userTypes []string) ([]models.UserDetails, error) {
	var users []models.UserDetails
	err := m.findAll(ctx, "user_details", bson.M{"user_type": bson.M{"$in": userTypes}}, &users)
	return users, err
}

func (m *MongoCatalog) findByID(ctx context.Context, collection string, id int, out any) error {
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return err
}

func (m *MongoCatalog) findAll(ctx context.Context, collection string, filter bson.M, out any) error {
	cursor, err := m.db.Collection(collection).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}
