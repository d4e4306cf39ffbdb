package apartment

import (
	"strconv"
	"strings"
)

// queryBuilder appends optional filters with @pN placeholders.
type queryBuilder struct {
	sb   strings.Builder
	args []any
}

func newQuery(base string) *queryBuilder {
	q := &queryBuilder{}
	q.sb.WriteString(strings.TrimSpace(base))
	return q
}

// where appends " AND <cond>" where every ? in cond takes the next arg.
func (q *queryBuilder) where(cond string, args ...any) {
	q.sb.WriteString(" AND ")
	for _, r := range cond {
		if r == '?' {
			q.args = append(q.args, args[0])
			args = args[1:]
			q.sb.WriteString("@p" + strconv.Itoa(len(q.args)))
			continue
		}
		q.sb.WriteRune(r)
	}
}

func (q *queryBuilder) raw(s string) {
	q.sb.WriteString(" ")
	q.sb.WriteString(s)
}

func (q *queryBuilder) String() string {
	return q.sb.String()
}

const (
	queryServiceTypes = `
SELECT st.service_type_id, st.code, st.name, st.unit, st.is_mandatory, st.is_recurring, st.is_active,
       c.name AS category_name
FROM {schema}.service_types st
LEFT JOIN {schema}.service_type_categories c ON st.category_id = c.category_id
WHERE st.is_active = 1 AND st.is_delete = 0`

	queryServicePrices = `
SELECT st.code AS service_code, st.name AS service_name, st.unit,
       sp.unit_price, sp.effective_date, sp.end_date, sp.status
FROM {schema}.service_prices sp
INNER JOIN {schema}.service_types st ON sp.service_type_id = st.service_type_id
WHERE 1=1`

	queryCurrentServicePrice = `
SELECT TOP 1 st.code, st.name, st.unit, sp.unit_price
FROM {schema}.service_prices sp
INNER JOIN {schema}.service_types st ON sp.service_type_id = st.service_type_id
WHERE st.code = @p1
  AND sp.status = 'APPROVED'
  AND sp.effective_date <= GETDATE()
  AND (sp.end_date IS NULL OR sp.end_date >= GETDATE())
ORDER BY sp.effective_date DESC`

	queryServiceCategories = `
SELECT category_id, name, description
FROM {schema}.service_type_categories
ORDER BY name`

	queryAmenities = `
SELECT amenity_id, code, name, category_name, location, has_monthly_package,
       fee_type, status, requires_face_verification, asset_id
FROM {schema}.amenities
WHERE is_delete = 0`

	queryAmenityPackages = `
SELECT ap.package_id, ap.amenity_id, a.code AS amenity_code, a.name AS amenity_name,
       ap.name AS package_name, ap.month_count, ap.price, ap.description, ap.status,
       ap.duration_days, ap.period_unit
FROM {schema}.amenity_packages ap
INNER JOIN {schema}.amenities a ON ap.amenity_id = a.amenity_id
WHERE 1=1`

	queryPackagePrice = `
SELECT TOP 1 a.code, a.name AS amenity_name, ap.name AS package_name, ap.month_count,
       ap.price, ap.duration_days, ap.period_unit
FROM {schema}.amenity_packages ap
INNER JOIN {schema}.amenities a ON ap.amenity_id = a.amenity_id
WHERE a.code = @p1
  AND ap.month_count = @p2
  AND ap.status = 'ACTIVE'
ORDER BY ap.price ASC`

	queryFloors = `
SELECT floor_id, floor_number, name
FROM {schema}.floors
ORDER BY floor_number`

	queryApartments = `
SELECT a.apartment_id, a.floor_id, f.floor_number, f.name AS floor_name,
       a.number AS apartment_number, a.area_m2, a.bedrooms, a.status, a.type,
       a.created_at, a.updated_at
FROM {schema}.apartments a
INNER JOIN {schema}.floors f ON a.floor_id = f.floor_id
WHERE 1=1`

	queryApartmentByNumber = `
SELECT a.apartment_id, a.floor_id, f.floor_number, f.name AS floor_name,
       a.number AS apartment_number, a.area_m2, a.bedrooms, a.status, a.type, a.image,
       a.created_at, a.updated_at
FROM {schema}.apartments a
INNER JOIN {schema}.floors f ON a.floor_id = f.floor_id
WHERE a.number = @p1`

	queryApartmentStatistics = `
SELECT COUNT(*) AS total_apartments,
       SUM(CASE WHEN status = 'AVAILABLE' THEN 1 ELSE 0 END) AS available,
       SUM(CASE WHEN status = 'OCCUPIED' THEN 1 ELSE 0 END) AS occupied,
       SUM(CASE WHEN status = 'RESERVED' THEN 1 ELSE 0 END) AS reserved,
       SUM(CASE WHEN status = 'MAINTENANCE' THEN 1 ELSE 0 END) AS maintenance,
       AVG(CAST(area_m2 AS FLOAT)) AS avg_area,
       MIN(area_m2) AS min_area,
       MAX(area_m2) AS max_area
FROM {schema}.apartments`
)
