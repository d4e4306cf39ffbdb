package apartment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("aptbot/internal/core/apartment")

type toolFunc func(s *ApartmentService, ctx context.Context, args map[string]any) Result

var tools = map[string]toolFunc{
	"get_service_types": func(s *ApartmentService, ctx context.Context, args map[string]any) Result {
		return s.GetServiceTypes(ctx, argString(args, "category"))
	},
	"get_service_prices": func(s *ApartmentService, ctx context.Context, args map[string]any) Result {
		activeOnly := true
		if v := argBool(args, "active_only"); v != nil {
			activeOnly = *v
		}
		return s.GetServicePrices(ctx, argString(args, "service_type_code"), activeOnly)
	},
	"calculate_service_fee": func(s *ApartmentService, ctx context.Context, args map[string]any) Result {
		code := argString(args, "service_code")
		if !present(code) {
			return missingArg("service_code")
		}
		quantity := 1.0
		if v := argFloat(args, "quantity"); v != nil {
			quantity = *v
		}
		return s.CalculateServiceFee(ctx, *code, quantity)
	},
	"get_service_categories": func(s *ApartmentService, ctx context.Context, _ map[string]any) Result {
		return s.GetServiceCategories(ctx)
	},
	"get_amenities": func(s *ApartmentService, ctx context.Context, args map[string]any) Result {
		status := argString(args, "status")
		if _, set := args["status"]; !set {
			active := StatusActive
			status = &active
		}
		return s.GetAmenities(ctx, argString(args, "category_name"), status, argBool(args, "has_monthly_package"))
	},
	"get_amenity_by_code": func(s *ApartmentService, ctx context.Context, args map[string]any) Result {
		code := argString(args, "code")
		if !present(code) {
			return missingArg("code")
		}
		return s.GetAmenityByCode(ctx, *code)
	},
	"get_amenity_packages": func(s *ApartmentService, ctx context.Context, args map[string]any) Result {
		status := argString(args, "status")
		if _, set := args["status"]; !set {
			active := StatusActive
			status = &active
		}
		return s.GetAmenityPackages(ctx, argString(args, "amenity_code"), status)
	},
	"calculate_amenity_package_price": func(s *ApartmentService, ctx context.Context, args map[string]any) Result {
		code := argString(args, "amenity_code")
		if !present(code) {
			return missingArg("amenity_code")
		}
		months := 1
		if v := argInt(args, "month_count"); v != nil {
			months = *v
		}
		return s.CalculateAmenityPackagePrice(ctx, *code, months)
	},
	"get_floors": func(s *ApartmentService, ctx context.Context, _ map[string]any) Result {
		return s.GetFloors(ctx)
	},
	"get_apartments": func(s *ApartmentService, ctx context.Context, args map[string]any) Result {
		return s.GetApartments(ctx, ApartmentFilter{
			FloorNumber: argInt(args, "floor_number"),
			Status:      argString(args, "status"),
			Type:        argString(args, "apartment_type"),
			MinBedrooms: argInt(args, "min_bedrooms"),
			MaxBedrooms: argInt(args, "max_bedrooms"),
			MinArea:     argFloat(args, "min_area"),
			MaxArea:     argFloat(args, "max_area"),
		})
	},
	"get_apartment_by_number": func(s *ApartmentService, ctx context.Context, args map[string]any) Result {
		number := argString(args, "apartment_number")
		if !present(number) {
			return missingArg("apartment_number")
		}
		return s.GetApartmentByNumber(ctx, *number)
	},
	"get_available_apartments": func(s *ApartmentService, ctx context.Context, args map[string]any) Result {
		return s.GetAvailableApartments(ctx, argString(args, "apartment_type"), argInt(args, "min_bedrooms"))
	},
	"get_apartment_statistics": func(s *ApartmentService, ctx context.Context, _ map[string]any) Result {
		return s.GetApartmentStatistics(ctx)
	},
}

// Invoke runs the named tool. ok is false when no tool has that name.
func (s *ApartmentService) Invoke(ctx context.Context, name string, args map[string]any) (Result, bool) {
	fn, ok := tools[name]
	if !ok {
		return Result{}, false
	}

	ctx, span := tracer.Start(ctx, "tool."+name)
	defer span.End()

	res := fn(s, ctx, args)
	span.SetAttributes(
		attribute.String("tool.name", name),
		attribute.Bool("tool.success", res.Success),
	)
	if !res.Success {
		span.SetStatus(codes.Error, res.Error)
	}
	return res, true
}

func (s *ApartmentService) ToolNames() []string {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func missingArg(name string) Result {
	return detailFail(fmt.Sprintf("Thiếu tham số bắt buộc: %s", name))
}

// Model arguments arrive as decoded JSON: numbers are float64, and some
// models quote them.

func argString(args map[string]any, key string) *string {
	switch v := args[key].(type) {
	case string:
		return &v
	case nil:
		return nil
	default:
		s := fmt.Sprint(v)
		return &s
	}
}

func argFloat(args map[string]any, key string) *float64 {
	var f float64
	switch v := args[key].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return nil
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		f = n
	default:
		return nil
	}
	return &f
}

func argInt(args map[string]any, key string) *int {
	f := argFloat(args, key)
	if f == nil {
		return nil
	}
	n := int(math.Round(*f))
	return &n
}

func argBool(args map[string]any, key string) *bool {
	var b bool
	switch v := args[key].(type) {
	case bool:
		b = v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		b = parsed
	case float64:
		b = v != 0
	default:
		return nil
	}
	return &b
}
