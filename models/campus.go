package models

type Campus struct {
	ID             int    `bson:"_id" json:"id"`
	OrganizationID int    `bson:"organization_id" json:"organization_id"`
	CampusName     string `bson:"campus_name" json:"campus_name"`
	WebAddress     string `bson:"web_address" json:"web_address"`
	Statement      string `bson:"statement" json:"statement"`
	Status         bool   `bson:"status" json:"status"`
}

func (c *Campus) Record() map[string]any {
	return map[string]any{
		"id":          c.ID,
		"campus_name": c.CampusName,
		"name":        c.CampusName,
		"web_address": c.WebAddress,
		"statement":   c.Statement,
	}
}
