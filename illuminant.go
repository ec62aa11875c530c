package raw

// Illuminant is a standard light source identifier as stored in the
// CalibrationIlluminant1/2 tags (the EXIF LightSource value set).
type Illuminant uint16

const (
	IlluminantDaylight             Illuminant = 1
	IlluminantFluorescent          Illuminant = 2
	IlluminantTungsten             Illuminant = 3
	IlluminantFlash                Illuminant = 4
	IlluminantFineWeather          Illuminant = 9
	IlluminantCloudyWeather        Illuminant = 10
	IlluminantShade                Illuminant = 11
	IlluminantDaylightFluorescent  Illuminant = 12
	IlluminantDayWhiteFluorescent  Illuminant = 13
	IlluminantCoolWhiteFluorescent Illuminant = 14
	IlluminantWhiteFluorescent     Illuminant = 15
	IlluminantStandardA            Illuminant = 17
	IlluminantStandardB            Illuminant = 18
	IlluminantStandardC            Illuminant = 19
	IlluminantD55                  Illuminant = 20
	IlluminantD65                  Illuminant = 21
	IlluminantD75                  Illuminant = 22
	IlluminantD50                  Illuminant = 23
	IlluminantISOStudioTungsten    Illuminant = 24
)

// illuminantCCT maps each standard illuminant to its correlated color
// temperature in Kelvin. Built once, never mutated. The calibration
// interpolation in the color pipeline runs over the inverse of these
// temperatures, per the DNG specification.
var illuminantCCT = map[Illuminant]float64{
	IlluminantDaylight:             5500,
	IlluminantFluorescent:          4200,
	IlluminantTungsten:             2850,
	IlluminantFlash:                5500,
	IlluminantFineWeather:          5500,
	IlluminantCloudyWeather:        6000,
	IlluminantShade:                7000,
	IlluminantDaylightFluorescent:  6400,
	IlluminantDayWhiteFluorescent:  5000,
	IlluminantCoolWhiteFluorescent: 4200,
	IlluminantWhiteFluorescent:     3450,
	IlluminantStandardA:            2856,
	IlluminantStandardB:            4874,
	IlluminantStandardC:            6774,
	IlluminantD55:                  5500,
	IlluminantD65:                  6504,
	IlluminantD75:                  7500,
	IlluminantD50:                  5003,
	IlluminantISOStudioTungsten:    3200,
}

// CCT returns the illuminant's correlated color temperature in Kelvin.
// The second return value is false for identifiers without a defined
// temperature ("other", "unknown").
func (i Illuminant) CCT() (float64, bool) {
	cct, ok := illuminantCCT[i]
	return cct, ok
}
