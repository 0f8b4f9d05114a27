package decoder

import "context"

// Stub returns canned attributes without any network call. It is used for
// local runs and demos where the real decoder is not reachable.
type Stub struct {
	// History switches to the vehicle-history shape.
	History bool
}

func (s Stub) Decode(_ context.Context, vin string) ([]Attribute, error) {
	if s.History {
		return []Attribute{
			{Name: "Model", Value: "Hyundai Elantra 2014"},
			{Name: "Owners", Value: "2"},
			{Name: "Mileage", Value: "154,000 km"},
			{Name: "Accident", Value: "Yes (2018, light rear impact)"},
			{Name: "Imported", Value: "From USA, 2020"},
		}, nil
	}
	return []Attribute{
		{Name: "Make", Value: "Toyota"},
		{Name: "Model", Value: "Camry"},
		{Name: "Model Year", Value: "2020"},
		{Name: "Vehicle Type", Value: "PASSENGER CAR"},
		{Name: "Plant Country", Value: "JAPAN"},
		{Name: "Body Class", Value: "Sedan/Saloon"},
	}, nil
}
