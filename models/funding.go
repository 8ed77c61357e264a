package models

type Funding struct {
	ID                    int     `bson:"_id" json:"id"`
	TitleOfFunding        string  `bson:"title_of_funding" json:"title_of_funding"`
	FundingFor            string  `bson:"funding_for" json:"funding_for"` // Org | College | Dept | Faculty | Other
	FundingForOrgID       *int    `bson:"funding_for_org_id,omitempty" json:"funding_for_org_id,omitempty"`
	FundingForCollegeID   *int    `bson:"funding_for_college_id,omitempty" json:"funding_for_college_id,omitempty"`
	FundingForDeptID      *int    `bson:"funding_for_dept_id,omitempty" json:"funding_for_dept_id,omitempty"`
	FundingForFacultyUser *int    `bson:"funding_for_faculty_user_id,omitempty" json:"funding_for_faculty_user_id,omitempty"`
	FundingOpportunityFor string  `bson:"funding_opportunity_for" json:"funding_opportunity_for"` // Domestic | International | Both
	FundingType           string  `bson:"funding_type" json:"funding_type"`                       // RA | TA | Fellowship | ...
	Amount                float64 `bson:"amount" json:"amount"`
	NumberOfPositions     int     `bson:"number_of_positions_opening" json:"number_of_positions_opening"`
	WebAddress            string  `bson:"web_address" json:"web_address"`
	Description           string  `bson:"description" json:"description"`
	FundingOpenDate       string  `bson:"funding_open_date" json:"funding_open_date"` // YYYY-MM-DD
	FundingEndDate        string  `bson:"funding_end_date" json:"funding_end_date"`   // YYYY-MM-DD
}

func (f *Funding) Record() map[string]any {
	return map[string]any{
		"id":                          f.ID,
		"title_of_funding":            f.TitleOfFunding,
		"funding_for":                 f.FundingFor,
		"funding_opportunity_for":     f.FundingOpportunityFor,
		"funding_type":                f.FundingType,
		"amount":                      f.Amount,
		"number_of_positions_opening": f.NumberOfPositions,
		"web_address":                 f.WebAddress,
		"description":                 f.Description,
		"funding_open_date":           f.FundingOpenDate,
		"funding_end_date":            f.FundingEndDate,
	}
}
