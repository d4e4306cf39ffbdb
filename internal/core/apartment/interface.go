package apartment

import "context"

type ApartmentServiceHandler interface {
	GetServiceTypes(ctx context.Context, category *string) Result
	GetServicePrices(ctx context.Context, serviceTypeCode *string, activeOnly bool) Result
	CalculateServiceFee(ctx context.Context, serviceCode string, quantity float64) Result
	GetServiceCategories(ctx context.Context) Result

	GetAmenities(ctx context.Context, categoryName *string, status *string, hasMonthlyPackage *bool) Result
	GetAmenityByCode(ctx context.Context, code string) Result
	GetAmenityPackages(ctx context.Context, amenityCode *string, status *string) Result
	CalculateAmenityPackagePrice(ctx context.Context, amenityCode string, monthCount int) Result

	GetFloors(ctx context.Context) Result
	GetApartments(ctx context.Context, filter ApartmentFilter) Result
	GetApartmentByNumber(ctx context.Context, number string) Result
	GetAvailableApartments(ctx context.Context, apartmentType *string, minBedrooms *int) Result
	GetApartmentStatistics(ctx context.Context) Result
}

// ToolInvoker dispatches a model function call by name.
type ToolInvoker interface {
	Invoke(ctx context.Context, name string, args map[string]any) (Result, bool)
	ToolNames() []string
}
