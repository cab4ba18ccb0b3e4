package features

// Canonical feature names shared by the training and serving paths. The
// serving surface must stay a name-matched subset of the training surface;
// TestServingFeaturesSubsetOfTraining enforces that.
const (
	FeatAirlineCode = "AIRLINE_CODE"
	FeatOriginCode  = "ORIGIN_CODE"
	FeatDestCode    = "DEST_CODE"

	FeatDepHour   = "DEP_HOUR"
	FeatDayOfWeek = "DAY_OF_WEEK"
	FeatMonth     = "MONTH"
	FeatIsWeekend = "IS_WEEKEND"

	FeatIsMorning   = "IS_MORNING"
	FeatIsAfternoon = "IS_AFTERNOON"
	FeatIsEvening   = "IS_EVENING"
	FeatIsNight     = "IS_NIGHT"

	FeatDepAirportTraffic = "DEP_AIRPORT_TRAFFIC"
	FeatArrAirportTraffic = "ARR_AIRPORT_TRAFFIC"
	FeatRoutePopularity   = "ROUTE_POPULARITY"
	FeatHolidayFlag       = "HOLIDAY_FLAG"

	FeatOriginPrecip    = "ORIGIN_PRECIP"
	FeatDestPrecip      = "DEST_PRECIP"
	FeatOriginSnow      = "ORIGIN_SNOW"
	FeatDestSnow        = "DEST_SNOW"
	FeatOriginHeavyWind = "ORIGIN_HEAVY_WIND"
	FeatDestHeavyWind   = "DEST_HEAVY_WIND"
	FeatTempDiff        = "TEMP_DIFF"
)

// Thresholds used by the derivation rules. The live heavy-wind threshold
// intentionally differs from the training one; both values are kept as
// observed so a future unification is a single edit here.
const (
	DelayThresholdMinutes = 15.0
	PrecipThreshold       = 0.1

	HeavyWindTrainingThreshold = 20.0 // historical daily wspd
	HeavyWindLiveThreshold     = 25.0 // live wind_speed

	// LiveTempBaseline is the fixed reference the live path measures
	// temperature deviation against.
	LiveTempBaseline = 20.0
)

// ServingFeatureNames is the feature surface the live assembly layer can
// produce, in the order the trainer consumes it.
func ServingFeatureNames() []string {
	return []string{
		FeatAirlineCode, FeatOriginCode, FeatDestCode,
		FeatDepHour, FeatDayOfWeek, FeatMonth,
		FeatIsMorning, FeatIsAfternoon, FeatIsEvening, FeatIsNight,
		FeatOriginPrecip, FeatDestPrecip,
		FeatOriginSnow, FeatDestSnow,
		FeatOriginHeavyWind, FeatDestHeavyWind,
		FeatTempDiff,
	}
}

// TrainingFeatureNames is everything Derive emits: the serving surface plus
// the training-only engineered columns and the raw joined weather columns.
func TrainingFeatureNames() []string {
	names := ServingFeatureNames()
	names = append(names,
		FeatIsWeekend,
		FeatDepAirportTraffic, FeatArrAirportTraffic,
		FeatRoutePopularity, FeatHolidayFlag,
	)
	for _, side := range []string{"ORIGIN_", "DEST_"} {
		for _, col := range weatherColumns {
			names = append(names, side+col)
		}
	}
	return names
}

// weatherColumns are the per-airport observation fields carried through the
// join, in source-file order.
var weatherColumns = []string{
	"tavg", "tmin", "tmax", "prcp", "snow",
	"wdir", "wspd", "wpgt", "pres", "tsun",
}
