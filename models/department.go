package models

type Department struct {
	ID         int    `bson:"_id" json:"id"`
	CollegeID  int    `bson:"college_id" json:"college_id"`
	Name       string `bson:"name" json:"name"`
	WebAddress string `bson:"web_address" json:"web_address"`
	Statement  string `bson:"statement" json:"statement"`
	Status     bool   `bson:"status" json:"status"`
}

func (d *Department) Record() map[string]any {
	return map[string]any{
		"id":          d.ID,
		"name":        d.Name,
		"web_address": d.WebAddress,
		"statement":   d.Statement,
	}
}
