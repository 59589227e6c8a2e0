package weather

import "math"

// KmhToMS converts km/h to m/s. A nil input stays nil.
func KmhToMS(kmh *float64) *float64 {
	if kmh == nil {
		return nil
	}
	return Ptr(*kmh / 3.6)
}

// CelsiusToFahrenheit converts °C to °F.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// FahrenheitToCelsius converts °F to °C.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// FillTemperatures derives whichever of the two scales is missing.
func (r *Reading) FillTemperatures() {
	switch {
	case r.TemperatureC != nil && r.TemperatureF == nil:
		r.TemperatureF = Ptr(CelsiusToFahrenheit(*r.TemperatureC))
	case r.TemperatureF != nil && r.TemperatureC == nil:
		r.TemperatureC = Ptr(FahrenheitToCelsius(*r.TemperatureF))
	}
}

// RoundInt rounds a nullable float to the nearest int.
func RoundInt(v *float64) *int {
	if v == nil {
		return nil
	}
	return Ptr(int(math.Round(*v)))
}

// RoundInt64 rounds a nullable float to the nearest int64.
func RoundInt64(v *float64) *int64 {
	if v == nil {
		return nil
	}
	return Ptr(int64(math.Round(*v)))
}
