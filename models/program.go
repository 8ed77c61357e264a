package models

type Program struct {
	ID                   int     `bson:"_id" json:"id"`
	DepartmentID         int     `bson:"department_id" json:"department_id"`
	Title                string  `bson:"title" json:"title"`
	Description          string  `bson:"description" json:"description"`
	EligibilityCriteria  string  `bson:"eligibility_criteria" json:"eligibility_criteria"`
	ApplicationProcess   string  `bson:"application_process" json:"application_process"`
	ApplicationStartDate string  `bson:"application_start_date" json:"application_start_date"` // YYYY-MM-DD
	ApplicationEndDate   string  `bson:"application_end_date" json:"application_end_date"`     // YYYY-MM-DD
	ApplicationFee       float64 `bson:"application_fee" json:"application_fee"`
	EntranceExamDetails  string  `bson:"entrance_exam_details" json:"entrance_exam_details"`
	InterviewProcess     string  `bson:"interview_process" json:"interview_process"`
	FinancialAidDetails  string  `bson:"financial_aid_details" json:"financial_aid_details"`
	ContactEmail         string  `bson:"contact_email" json:"contact_email"`
	ContactPhone         string  `bson:"contact_phone" json:"contact_phone"`
	Status               bool    `bson:"status" json:"status"`
}

func (p *Program) Record() map[string]any {
	return map[string]any{
		"id":                     p.ID,
		"title":                  p.Title,
		"description":            p.Description,
		"eligibility_criteria":   p.EligibilityCriteria,
		"application_process":    p.ApplicationProcess,
		"application_start_date": p.ApplicationStartDate,
		"application_end_date":   p.ApplicationEndDate,
		"application_fee":        p.ApplicationFee,
		"entrance_exam_details":  p.EntranceExamDetails,
		"interview_process":      p.InterviewProcess,
		"financial_aid_details":  p.FinancialAidDetails,
		"contact_email":          p.ContactEmail,
		"contact_phone":          p.ContactPhone,
	}
}
