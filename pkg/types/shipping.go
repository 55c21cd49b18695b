package types

// ShippingAddress carries the carrier-facing address fields for either end of
// a shipment. Stored as jsonb alongside the shipping record.
type ShippingAddress struct {
	Name     string `json:"name,omitempty" validate:"omitempty,max=120"`
	Street   string `json:"street1" validate:"required"`
	City     string `json:"city" validate:"required"`
	Province string `json:"province" validate:"required"`
	Zip      string `json:"zip" validate:"required"`
	Country  string `json:"country" validate:"required,len=2"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

// Parcel describes one package in a quotation or shipment request.
// Dimensions are centimeters, weight is kilograms.
type Parcel struct {
	Length float64 `json:"length" validate:"required,gt=0"`
	Width  float64 `json:"width" validate:"required,gt=0"`
	Height float64 `json:"height" validate:"required,gt=0"`
	Weight float64 `json:"weight" validate:"required,gt=0"`
}
