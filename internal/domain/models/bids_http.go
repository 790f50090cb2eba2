package models

// Requests for the bidding analytics HTTP endpoints. Zero values fall back to
// the configured analytics defaults.

type PremiumRequest struct {
	VehicleClass string `query:"vehicle_class" json:"vehicle_class"`
	Window       int    `query:"window" json:"window" validate:"lte=240"`
	XAxisMode    string `query:"x_axis_mode" json:"x_axis_mode" validate:"omitempty,oneof_ci=Year Month MonthName month_name"`
	Aggregation  string `query:"aggregation" json:"aggregation" validate:"omitempty,oneof=mean median"`
	StartYear    int    `query:"start_year" json:"start_year" validate:"omitempty,gte=1990,lte=2200"`
	EndYear      int    `query:"end_year" json:"end_year" validate:"omitempty,gte=1990,lte=2200"`
}

type SeasonalityRequest struct {
	VehicleClass string `query:"vehicle_class" json:"vehicle_class"`
	Aggregation  string `query:"aggregation" json:"aggregation" validate:"omitempty,oneof=mean median"`
	StartYear    int    `query:"start_year" json:"start_year" validate:"omitempty,gte=1990,lte=2200"`
	EndYear      int    `query:"end_year" json:"end_year" validate:"omitempty,gte=1990,lte=2200"`
}

type RangeRequest struct {
	VehicleClass string `query:"vehicle_class" json:"vehicle_class"`
	StartYear    int    `query:"start_year" json:"start_year" validate:"omitempty,gte=1990,lte=2200"`
	EndYear      int    `query:"end_year" json:"end_year" validate:"omitempty,gte=1990,lte=2200"`
}

type TimeseriesRequest struct {
	VehicleClass string `query:"vehicle_class" json:"vehicle_class"`
	Window       int    `query:"window" json:"window" validate:"lte=240"`
	StartYear    int    `query:"start_year" json:"start_year" validate:"omitempty,gte=1990,lte=2200"`
	EndYear      int    `query:"end_year" json:"end_year" validate:"omitempty,gte=1990,lte=2200"`
}

// IngestRequest is the body of POST /api/ingest.
type IngestRequest struct {
	BatchID string   `json:"batch_id"`
	Source  string   `json:"source" default:"api"`
	Rows    []RawRow `json:"rows" validate:"required,min=1,max=50000"`
}
