package domain

// Product is the slice of the catalog product the cart needs: identity and
// the per-role price columns. All prices are in minor currency units.
type Product struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	SKU                  string `json:"sku"`
	RetailPrice          int64  `json:"retail_price"`
	WholesaleLevel1Price int64  `json:"opt1_price,omitempty"`
	WholesaleLevel2Price int64  `json:"opt2_price,omitempty"`
	WholesaleLevel3Price int64  `json:"opt3_price,omitempty"`
	TrainerPrice         int64  `json:"trainer_price,omitempty"`
	FederationPrice      int64  `json:"federation_price,omitempty"`
	ImageURL             string `json:"image_url,omitempty"`
}

// PriceFor selects the unit price for the given role. Tiers without a
// dedicated price fall back to retail. The switch is exhaustive over the
// closed role set; an invalid role gets the retail price.
func (p Product) PriceFor(role Role) int64 {
	var price int64
	switch role {
	case RoleRetail, RoleAdmin:
		price = p.RetailPrice
	case RoleWholesaleLevel1:
		price = p.WholesaleLevel1Price
	case RoleWholesaleLevel2:
		price = p.WholesaleLevel2Price
	case RoleWholesaleLevel3:
		price = p.WholesaleLevel3Price
	case RoleTrainer:
		price = p.TrainerPrice
	case RoleFederationRep:
		price = p.FederationPrice
	}
	if price <= 0 {
		price = p.RetailPrice
	}
	return price
}
