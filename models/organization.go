package models

// Organization is the read-shape of an educational organization record.
// Address fields live on the organization because the relational source keeps
// a single address block per organization.
type Organization struct {
	ID                int    `bson:"_id" json:"id"`
	Name              string `bson:"name" json:"name"`
	UnderCategoryName string `bson:"under_category_name" json:"under_category_name"`
	WebAddress        string `bson:"web_address" json:"web_address"`
	Statement         string `bson:"statement" json:"statement"`
	AddressLine1      string `bson:"address_line1" json:"address_line1"`
	AddressLine2      string `bson:"address_line2" json:"address_line2"`
	City              string `bson:"city" json:"city"`
	StateProvinceName string `bson:"state_province_name" json:"state_province_name"`
	CountryName       string `bson:"country_name" json:"country_name"`
	CountryCode       string `bson:"country_code" json:"country_code"`
	PostalCode        string `bson:"postal_code" json:"postal_code"`
	Status            bool   `bson:"status" json:"status"`
}

// Record returns the flat serialized form used by the data services.
func (o *Organization) Record() map[string]any {
	return map[string]any{
		"id":                  o.ID,
		"name":                o.Name,
		"under_category_name": o.UnderCategoryName,
		"web_address":         o.WebAddress,
		"statement":           o.Statement,
		"address_line1":       o.AddressLine1,
		"address_line2":       o.AddressLine2,
		"city":                o.City,
		"state_province_name": o.StateProvinceName,
		"country_name":        o.CountryName,
		"country_code":        o.CountryCode,
		"postal_code":         o.PostalCode,
	}
}
