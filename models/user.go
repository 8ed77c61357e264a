package models

// FileRef points at an uploaded document (resume, SOP, funding doc) resolved
// through the media storage collaborator.
type FileRef struct {
	URL      string `bson:"url" json:"url"`
	FileName string `bson:"file_name" json:"file_name"`
}

type Publication struct {
	Title    string `bson:"title" json:"title"`
	Abstract string `bson:"abstract" json:"abstract"`
}

// UserDetails is the read-shape of an applicant or researcher profile joined
// with its auth-user record.
type UserDetails struct {
	UserID    int    `bson:"user_id" json:"user_id"`
	Username  string `bson:"username" json:"username"`
	FirstName string `bson:"first_name" json:"first_name"`
	LastName  string `bson:"last_name" json:"last_name"`
	Email     string `bson:"email" json:"email"`
	UserType  string `bson:"user_type" json:"user_type"` // Student, Professor, Researcher, ...

	Groups []string `bson:"groups" json:"groups"`

	// Affiliation foreign keys; nil when the user has not set one.
	DepartmentID   *int `bson:"department_id,omitempty" json:"department"`
	CollegeID      *int `bson:"college_id,omitempty" json:"college"`
	CampusID       *int `bson:"campus_id,omitempty" json:"campus"`
	OrganizationID *int `bson:"organization_id,omitempty" json:"organization"`

	CurrentCity          string `bson:"current_city" json:"current_city"`
	CurrentStateProvince string `bson:"current_state_province" json:"current_state_province"`
	CurrentCountry       string `bson:"current_country" json:"current_country"`
	CitizenshipStatus    string `bson:"citizenship_status" json:"citizenship_status"`
	FirstLanguage        string `bson:"first_language" json:"first_language"`

	Resume       []FileRef     `bson:"resume" json:"resume"`
	SOP          []FileRef     `bson:"sop" json:"sop"`
	Publications []Publication `bson:"publications" json:"publications"`
}

// Record returns the scalar profile fields the flat user record is built
// from. Resume, SOP and publications are handled separately by the user data
// service because they are list-valued enrichment, not scalar metadata.
func (u *UserDetails) Record() map[string]any {
	return map[string]any{
		"user_id":                u.UserID,
		"username":               u.Username,
		"first_name":             u.FirstName,
		"last_name":              u.LastName,
		"email":                  u.Email,
		"user_type":              u.UserType,
		"department":             intOrNil(u.DepartmentID),
		"college":                intOrNil(u.CollegeID),
		"campus":                 intOrNil(u.CampusID),
		"organization":           intOrNil(u.OrganizationID),
		"current_city":           u.CurrentCity,
		"current_state_province": u.CurrentStateProvince,
		"current_country":        u.CurrentCountry,
		"citizenship_status":     u.CitizenshipStatus,
		"first_language":         u.FirstLanguage,
	}
}

func intOrNil(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
