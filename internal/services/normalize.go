package services

import (
	"strings"

	"github.com/brainforcegit/vin-bot/internal/decoder"
	"github.com/brainforcegit/vin-bot/internal/models"
)

// Normalize maps the decoder's attribute list onto a Report. Empty values
// are skipped and the first non-empty value of a name wins.
func Normalize(vin string, attrs []decoder.Attribute) models.Report {
	r := models.Report{VIN: vin}

	fields := map[string]**string{
		"make":          &r.Make,
		"model":         &r.Model,
		"model year":    &r.Year,
		"vehicle type":  &r.VehicleType,
		"plant country": &r.PlantCountry,
		"body class":    &r.BodyClass,
		"owners":        &r.Owners,
		"mileage":       &r.Mileage,
		"accident":      &r.Accident,
		"imported":      &r.Imported,
	}

	for _, a := range attrs {
		value := strings.TrimSpace(a.Value)
		if value == "" {
			continue
		}
		dst, ok := fields[strings.ToLower(strings.TrimSpace(a.Name))]
		if !ok || *dst != nil {
			continue
		}
		*dst = models.StrPtr(value)
	}
	return r
}
