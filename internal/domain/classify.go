package domain

// DroughtClass is the ordinal drought-severity category of a standardized index value.
type DroughtClass string

const (
	ClassExtremeDrought  DroughtClass = "Extreme Drought"
	ClassSevereDrought   DroughtClass = "Severe Drought"
	ClassModerateDrought DroughtClass = "Moderate Drought"
	ClassNearNormal      DroughtClass = "Near Normal"
	ClassModerateWet     DroughtClass = "Moderate Wet"
	ClassSevereWet       DroughtClass = "Severe Wet"
	ClassExtremeWet      DroughtClass = "Extreme Wet"
	ClassNoData          DroughtClass = "No Data"
)

// Classify maps an index value onto its threshold band. The bands are
// symmetric around zero and shared by CZI, MCZI and CI:
//
//	v <= -2.0        Extreme Drought
//	-2.0 < v <= -1.5 Severe Drought
//	-1.5 < v <= -1.0 Moderate Drought
//	-1.0 < v <  1.0  Near Normal
//	 1.0 <= v < 1.5  Moderate Wet
//	 1.5 <= v < 2.0  Severe Wet
//	 v >= 2.0        Extreme Wet
//
// NaN is not a valid index value and maps to No Data.
func Classify(v float64) DroughtClass {
	switch {
	case v <= -2.0:
		return ClassExtremeDrought
	case v <= -1.5:
		return ClassSevereDrought
	case v <= -1.0:
		return ClassModerateDrought
	case v < 1.0:
		return ClassNearNormal
	case v < 1.5:
		return ClassModerateWet
	case v < 2.0:
		return ClassSevereWet
	case v >= 2.0:
		return ClassExtremeWet
	default:
		return ClassNoData
	}
}

// ClassOf classifies an optional value; nil yields No Data.
func ClassOf(v *float64) DroughtClass {
	if v == nil {
		return ClassNoData
	}
	return Classify(*v)
}

// Rank returns the ordinal position of the class, from -3 (Extreme Drought)
// to 3 (Extreme Wet). No Data and unknown labels report ok=false.
func (c DroughtClass) Rank() (rank int, ok bool) {
	switch c {
	case ClassExtremeDrought:
		return -3, true
	case ClassSevereDrought:
		return -2, true
	case ClassModerateDrought:
		return -1, true
	case ClassNearNormal:
		return 0, true
	case ClassModerateWet:
		return 1, true
	case ClassSevereWet:
		return 2, true
	case ClassExtremeWet:
		return 3, true
	default:
		return 0, false
	}
}

// IsDrought reports whether the class is one of the drought bands.
func (c DroughtClass) IsDrought() bool {
	r, ok := c.Rank()
	return ok && r < 0
}
