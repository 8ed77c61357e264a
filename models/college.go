package models

type College struct {
	ID         int    `bson:"_id" json:"id"`
	CampusID   int    `bson:"campus_id" json:"campus_id"`
	Name       string `bson:"name" json:"name"`
	WebAddress string `bson:"web_address" json:"web_address"`
	Statement  string `bson:"statement" json:"statement"`
	Status     bool   `bson:"status" json:"status"`
}

func (c *College) Record() map[string]any {
	return map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"web_address": c.WebAddress,
		"statement":   c.Statement,
	}
}
