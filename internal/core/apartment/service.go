package apartment

import (
	"context"
	"fmt"
	"math"

	"aptbot/internal/db"
	"aptbot/internal/tenant"
	"aptbot/internal/utils"

	"github.com/rs/zerolog"
)

func NewApartmentService(querier db.Querier, logger zerolog.Logger) *ApartmentService {
	return &ApartmentService{
		db:     querier,
		logger: logger.With().Str("component", "apartment").Logger(),
	}
}

type ApartmentService struct {
	db     db.Querier
	logger zerolog.Logger
}

func authenticated(ctx context.Context) bool {
	_, ok := tenant.SchemaFromContext(ctx)
	return ok
}

func (s *ApartmentService) list(ctx context.Context, op string, q *queryBuilder) ([]db.Row, error) {
	rows, err := s.db.Query(ctx, q.String(), q.args...)
	if err != nil {
		s.logger.Error().Err(err).Str("op", op).Msg("query failed")
		return nil, err
	}
	return rows, nil
}

// ==================== service fees ====================

func (s *ApartmentService) GetServiceTypes(ctx context.Context, category *string) Result {
	if !authenticated(ctx) {
		return authRequired()
	}

	q := newQuery(queryServiceTypes)
	if present(category) {
		q.where("c.name = ?", *category)
	}
	q.raw("ORDER BY st.name")

	rows, err := s.list(ctx, "get_service_types", q)
	if err != nil {
		return listFail(err)
	}
	return listResult(rows)
}

func (s *ApartmentService) GetServicePrices(ctx context.Context, serviceTypeCode *string, activeOnly bool) Result {
	if !authenticated(ctx) {
		return authRequired()
	}

	q := newQuery(queryServicePrices)
	if present(serviceTypeCode) {
		q.where("st.code = ?", *serviceTypeCode)
	}
	if activeOnly {
		q.where("sp.status = 'APPROVED'")
		q.where("sp.effective_date <= GETDATE()")
		q.where("(sp.end_date IS NULL OR sp.end_date >= GETDATE())")
	}
	q.raw("ORDER BY st.name, sp.effective_date DESC")

	rows, err := s.list(ctx, "get_service_prices", q)
	if err != nil {
		return listFail(err)
	}
	for _, row := range rows {
		if price := toFloat(row["unit_price"]); price != 0 {
			row["unit_price_formatted"] = utils.FormatVND(price)
		}
	}
	return listResult(rows)
}

func (s *ApartmentService) CalculateServiceFee(ctx context.Context, serviceCode string, quantity float64) Result {
	if !authenticated(ctx) {
		return authRequired()
	}
	if quantity <= 0 || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return detailFail(fmt.Sprintf("Số lượng không hợp lệ: %v", quantity))
	}

	rows, err := s.db.Query(ctx, queryCurrentServicePrice, serviceCode)
	if err != nil {
		s.logger.Error().Err(err).Str("op", "calculate_service_fee").Msg("query failed")
		return detailFail(err.Error())
	}
	if len(rows) == 0 {
		return detailFail(fmt.Sprintf("Không tìm thấy dịch vụ với mã: %s", serviceCode))
	}

	row := rows[0]
	unitPrice := toFloat(row["unit_price"])
	total := unitPrice * quantity
	return detailResult(ServiceFee{
		ServiceCode:        row["code"],
		ServiceName:        row["name"],
		Unit:               row["unit"],
		UnitPrice:          unitPrice,
		UnitPriceFormatted: utils.FormatVND(unitPrice),
		Quantity:           quantity,
		Total:              total,
		TotalFormatted:     utils.FormatVND(total),
	})
}

func (s *ApartmentService) GetServiceCategories(ctx context.Context) Result {
	if !authenticated(ctx) {
		return authRequired()
	}
	rows, err := s.list(ctx, "get_service_categories", newQuery(queryServiceCategories))
	if err != nil {
		return listFail(err)
	}
	return listResult(rows)
}

// ==================== amenities ====================

func (s *ApartmentService) GetAmenities(ctx context.Context, categoryName *string, status *string, hasMonthlyPackage *bool) Result {
	if !authenticated(ctx) {
		return authRequired()
	}

	q := newQuery(queryAmenities)
	if present(categoryName) {
		q.where("category_name = ?", *categoryName)
	}
	if present(status) {
		q.where("status = ?", *status)
	}
	if hasMonthlyPackage != nil {
		bit := 0
		if *hasMonthlyPackage {
			bit = 1
		}
		q.where("has_monthly_package = ?", bit)
	}
	q.raw("ORDER BY category_name, name")

	rows, err := s.list(ctx, "get_amenities", q)
	if err != nil {
		return listFail(err)
	}

	var packages map[string][]db.Row
	for _, amenity := range rows {
		amenity["cheapest_package"] = nil
		amenity["total_packages"] = 0
		if !truthy(amenity["has_monthly_package"]) {
			continue
		}
		if packages == nil {
			packages, err = s.activePackagesByAmenity(ctx)
			if err != nil {
				// amenities are still useful without their prices
				packages = map[string][]db.Row{}
			}
		}
		code, _ := amenity["code"].(string)
		pkgs := packages[code]
		if len(pkgs) == 0 {
			continue
		}
		amenity["cheapest_package"] = cheapestPackage(pkgs)
		amenity["total_packages"] = len(pkgs)
	}
	return listResult(rows)
}

// activePackagesByAmenity loads every ACTIVE package once and groups them by
// amenity code.
func (s *ApartmentService) activePackagesByAmenity(ctx context.Context) (map[string][]db.Row, error) {
	active := StatusActive
	rows, err := s.packages(ctx, nil, &active)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]db.Row)
	for _, row := range rows {
		code, _ := row["amenity_code"].(string)
		out[code] = append(out[code], row)
	}
	return out, nil
}

func cheapestPackage(pkgs []db.Row) CheapestPackage {
	best := pkgs[0]
	bestPrice := priceOrInf(best)
	for _, p := range pkgs[1:] {
		if price := priceOrInf(p); price < bestPrice {
			best, bestPrice = p, price
		}
	}
	name, _ := best["package_name"].(string)
	formatted, ok := best["price_formatted"].(string)
	if !ok {
		formatted = "0 VND"
	}
	month := best["month_count"]
	if month == nil {
		month = 0
	}
	return CheapestPackage{
		Name:           name,
		Price:          toFloat(best["price"]),
		PriceFormatted: formatted,
		MonthCount:     month,
	}
}

func priceOrInf(row db.Row) float64 {
	if row["price"] == nil {
		return math.Inf(1)
	}
	return toFloat(row["price"])
}

func (s *ApartmentService) GetAmenityByCode(ctx context.Context, code string) Result {
	if !authenticated(ctx) {
		return authRequired()
	}

	q := newQuery(queryAmenities)
	q.where("code = ?", code)
	rows, err := s.list(ctx, "get_amenity_by_code", q)
	if err != nil {
		return detailFail(err.Error())
	}
	if len(rows) == 0 {
		return detailFail(fmt.Sprintf("Không tìm thấy tiện ích với mã: %s", code))
	}

	amenity := rows[0]
	amenity["packages"] = []db.Row{}
	amenity["package_count"] = 0
	if truthy(amenity["has_monthly_package"]) {
		active := StatusActive
		pkgs, err := s.packages(ctx, &code, &active)
		if err == nil && len(pkgs) > 0 {
			amenity["packages"] = pkgs
			amenity["package_count"] = len(pkgs)
		}
	}
	return detailResult(amenity)
}

func (s *ApartmentService) GetAmenityPackages(ctx context.Context, amenityCode *string, status *string) Result {
	if !authenticated(ctx) {
		return authRequired()
	}
	rows, err := s.packages(ctx, amenityCode, status)
	if err != nil {
		return listFail(err)
	}
	return listResult(rows)
}

func (s *ApartmentService) packages(ctx context.Context, amenityCode *string, status *string) ([]db.Row, error) {
	q := newQuery(queryAmenityPackages)
	if present(amenityCode) {
		q.where("a.code = ?", *amenityCode)
	}
	if present(status) {
		q.where("ap.status = ?", *status)
	}
	q.raw("ORDER BY a.name, ap.month_count")

	rows, err := s.list(ctx, "get_amenity_packages", q)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if price := toFloat(row["price"]); price != 0 {
			row["price_formatted"] = utils.FormatVND(price)
		}
	}
	return rows, nil
}

func (s *ApartmentService) CalculateAmenityPackagePrice(ctx context.Context, amenityCode string, monthCount int) Result {
	if !authenticated(ctx) {
		return authRequired()
	}

	rows, err := s.db.Query(ctx, queryPackagePrice, amenityCode, monthCount)
	if err != nil {
		s.logger.Error().Err(err).Str("op", "calculate_amenity_package_price").Msg("query failed")
		return detailFail(err.Error())
	}
	if len(rows) == 0 {
		return detailFail(fmt.Sprintf("Không tìm thấy gói %d tháng cho tiện ích %s", monthCount, amenityCode))
	}

	row := rows[0]
	price := toFloat(row["price"])
	return detailResult(PackagePrice{
		AmenityCode:    row["code"],
		AmenityName:    row["amenity_name"],
		PackageName:    row["package_name"],
		MonthCount:     row["month_count"],
		DurationDays:   row["duration_days"],
		PeriodUnit:     row["period_unit"],
		Price:          price,
		PriceFormatted: utils.FormatVND(price),
	})
}

// ==================== apartments & floors ====================

func (s *ApartmentService) GetFloors(ctx context.Context) Result {
	if !authenticated(ctx) {
		return authRequired()
	}
	rows, err := s.list(ctx, "get_floors", newQuery(queryFloors))
	if err != nil {
		return listFail(err)
	}
	return listResult(rows)
}

func (s *ApartmentService) GetApartments(ctx context.Context, filter ApartmentFilter) Result {
	if !authenticated(ctx) {
		return authRequired()
	}

	q := newQuery(queryApartments)
	if filter.FloorNumber != nil {
		q.where("f.floor_number = ?", *filter.FloorNumber)
	}
	if present(filter.Status) {
		q.where("a.status = ?", *filter.Status)
	}
	if present(filter.Type) {
		q.where("a.type = ?", *filter.Type)
	}
	if filter.MinBedrooms != nil {
		q.where("a.bedrooms >= ?", *filter.MinBedrooms)
	}
	if filter.MaxBedrooms != nil {
		q.where("a.bedrooms <= ?", *filter.MaxBedrooms)
	}
	if filter.MinArea != nil {
		q.where("a.area_m2 >= ?", *filter.MinArea)
	}
	if filter.MaxArea != nil {
		q.where("a.area_m2 <= ?", *filter.MaxArea)
	}
	q.raw("ORDER BY f.floor_number, a.number")

	rows, err := s.list(ctx, "get_apartments", q)
	if err != nil {
		return listFail(err)
	}
	return listResult(rows)
}

func (s *ApartmentService) GetApartmentByNumber(ctx context.Context, number string) Result {
	if !authenticated(ctx) {
		return authRequired()
	}

	rows, err := s.db.Query(ctx, queryApartmentByNumber, number)
	if err != nil {
		s.logger.Error().Err(err).Str("op", "get_apartment_by_number").Msg("query failed")
		return detailFail(err.Error())
	}
	if len(rows) == 0 {
		return detailFail(fmt.Sprintf("Không tìm thấy căn hộ số: %s", number))
	}
	return detailResult(rows[0])
}

func (s *ApartmentService) GetAvailableApartments(ctx context.Context, apartmentType *string, minBedrooms *int) Result {
	status := StatusAvailable
	return s.GetApartments(ctx, ApartmentFilter{
		Status:      &status,
		Type:        apartmentType,
		MinBedrooms: minBedrooms,
	})
}

func (s *ApartmentService) GetApartmentStatistics(ctx context.Context) Result {
	if !authenticated(ctx) {
		return authRequired()
	}

	rows, err := s.db.Query(ctx, queryApartmentStatistics)
	if err != nil {
		s.logger.Error().Err(err).Str("op", "get_apartment_statistics").Msg("query failed")
		return detailFail(err.Error())
	}
	if len(rows) == 0 {
		return detailFail("Không có dữ liệu thống kê")
	}

	row := rows[0]
	return detailResult(Statistics{
		TotalApartments: toInt(row["total_apartments"]),
		Available:       toInt(row["available"]),
		Occupied:        toInt(row["occupied"]),
		Reserved:        toInt(row["reserved"]),
		Maintenance:     toInt(row["maintenance"]),
		AvgAreaM2:       utils.Round2(toFloat(row["avg_area"])),
		MinAreaM2:       toFloat(row["min_area"]),
		MaxAreaM2:       toFloat(row["max_area"]),
	})
}
