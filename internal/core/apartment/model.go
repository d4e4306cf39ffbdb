package apartment

import "aptbot/internal/db"

const (
	ErrAuthRequired = "Authentication required. Please login to access this data."

	StatusActive    = "ACTIVE"
	StatusApproved  = "APPROVED"
	StatusAvailable = "AVAILABLE"
)

// Result is what every tool hands back to the model. List tools always
// carry Count; detail tools leave it nil.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Map renders the result as the plain object sent in a function response.
func (r Result) Map() map[string]any {
	m := map[string]any{"success": r.Success}
	if r.Data != nil {
		m["data"] = r.Data
	}
	if r.Count != nil {
		m["count"] = *r.Count
	}
	if r.Error != "" {
		m["error"] = r.Error
	}
	return m
}

type ApartmentFilter struct {
	FloorNumber *int
	Status      *string
	Type        *string
	MinBedrooms *int
	MaxBedrooms *int
	MinArea     *float64
	MaxArea     *float64
}

type CheapestPackage struct {
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	PriceFormatted string  `json:"price_formatted"`
	MonthCount     any     `json:"month_count"`
}

type ServiceFee struct {
	ServiceCode        any     `json:"service_code"`
	ServiceName        any     `json:"service_name"`
	Unit               any     `json:"unit"`
	UnitPrice          float64 `json:"unit_price"`
	UnitPriceFormatted string  `json:"unit_price_formatted"`
	Quantity           float64 `json:"quantity"`
	Total              float64 `json:"total"`
	TotalFormatted     string  `json:"total_formatted"`
}

type PackagePrice struct {
	AmenityCode    any     `json:"amenity_code"`
	AmenityName    any     `json:"amenity_name"`
	PackageName    any     `json:"package_name"`
	MonthCount     any     `json:"month_count"`
	DurationDays   any     `json:"duration_days"`
	PeriodUnit     any     `json:"period_unit"`
	Price          float64 `json:"price"`
	PriceFormatted string  `json:"price_formatted"`
}

type Statistics struct {
	TotalApartments int64   `json:"total_apartments"`
	Available       int64   `json:"available"`
	Occupied        int64   `json:"occupied"`
	Reserved        int64   `json:"reserved"`
	Maintenance     int64   `json:"maintenance"`
	AvgAreaM2       float64 `json:"avg_area_m2"`
	MinAreaM2       float64 `json:"min_area_m2"`
	MaxAreaM2       float64 `json:"max_area_m2"`
}

func listResult(rows []db.Row) Result {
	if rows == nil {
		rows = []db.Row{}
	}
	n := len(rows)
	return Result{Success: true, Data: rows, Count: &n}
}

func listFail(err error) Result {
	n := 0
	return Result{Success: false, Error: err.Error(), Data: []db.Row{}, Count: &n}
}

func authRequired() Result {
	n := 0
	return Result{Success: false, Error: ErrAuthRequired, Data: []db.Row{}, Count: &n}
}

func detailResult(data any) Result {
	return Result{Success: true, Data: data}
}

func detailFail(msg string) Result {
	return Result{Success: false, Error: msg}
}
