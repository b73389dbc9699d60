package service

import (
	"context"
	"errors"

	catalogerrors "bookd/internal/catalog/errors"
	catalogrepository "bookd/internal/catalog/repository"
	discounterrors "bookd/internal/discounts/errors"
	discountservice "bookd/internal/discounts/service"
	"bookd/pkg/config"
	apperrors "bookd/pkg/errors"
	"bookd/pkg/model"

	"github.com/shopspring/decimal"
)

// Selection is one service a customer picked, with the names of the add-on
// options they selected for it.
type Selection struct {
	ServiceID string   `json:"service_id" validate:"required,mongodb"`
	Options   []string `json:"options,omitempty" validate:"omitempty,max=20,dive,required"`
}

// Quote is a fully priced booking: captured line items, the subtotal before
// discount, and the applied discount if any. All amounts are rounded to two
// decimal places exactly once, here.
type Quote struct {
	LineItems      []model.BookingLineItem `json:"line_items"`
	Subtotal       string                  `json:"subtotal"`
	DiscountCode   string                  `json:"discount_code,omitempty"`
	DiscountID     string                  `json:"discount_id,omitempty"`
	DiscountAmount string                  `json:"discount_amount,omitempty"`
	Total          string                  `json:"total"`
}

type PricingService interface {
	Quote(ctx context.Context, tenantID string, selections []Selection, discountCode string) (*Quote, error)
}

type pricingService struct {
	catalog   catalogrepository.CatalogRepository
	discounts discountservice.DiscountService
	cfg       *config.Config
}

func NewPricingService(
	catalog catalogrepository.CatalogRepository,
	discounts discountservice.DiscountService,
	cfg *config.Config,
) PricingService {
	return &pricingService{
		catalog:   catalog,
		discounts: discounts,
		cfg:       cfg,
	}
}

func (s *pricingService) Quote(ctx context.Context, tenantID string, selections []Selection, discountCode string) (*Quote, error) {
	if len(selections) == 0 {
		return nil, apperrors.InvalidInput("at least one service selection is required")
	}

	subtotal := decimal.Zero
	lineItems := make([]model.BookingLineItem, 0, len(selections))
	discountsDisabled := false

	for _, selection := range selections {
		svc, err := s.lookupService(ctx, tenantID, selection.ServiceID)
		if err != nil {
			return nil, err
		}
		if svc.DiscountsDisabled {
			discountsDisabled = true
		}

		lineTotal, err := priceLine(svc, selection.Options)
		if err != nil {
			return nil, err
		}

		lineItems = append(lineItems, model.BookingLineItem{
			ServiceID:       svc.ID,
			ServiceName:     svc.Name,
			BasePrice:       svc.BasePrice,
			SelectedOptions: selection.Options,
			LineTotal:       lineTotal.StringFixed(2),
		})
		subtotal = subtotal.Add(lineTotal)
	}

	quote := &Quote{
		LineItems: lineItems,
		Subtotal:  subtotal.StringFixed(2),
		Total:     subtotal.StringFixed(2),
	}

	if discountCode == "" {
		return quote, nil
	}

	if discountsDisabled {
		return nil, apperrors.DiscountInvalid("not_eligible")
	}

	discount, err := s.discounts.Validate(ctx, tenantID, discountCode)
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.DiscountInvalid(discounterrors.Reason(err))
	}

	amount, err := discountAmount(discount, subtotal)
	if err != nil {
		return nil, err
	}

	total := subtotal.Sub(amount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	quote.DiscountCode = discount.Code
	quote.DiscountID = discount.ID
	quote.DiscountAmount = amount.StringFixed(2)
	quote.Total = total.StringFixed(2)
	return quote, nil
}

func (s *pricingService) lookupService(ctx context.Context, tenantID, serviceID string) (*model.CatalogService, error) {
	svc, err := s.catalog.FindByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrNotFound) || errors.Is(err, catalogerrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Service", serviceID)
		}
		return nil, apperrors.Internal("Failed to look up service", err)
	}

	// A service from another tenant is indistinguishable from a missing one.
	if svc.TenantID != tenantID {
		return nil, apperrors.NotFoundWithID("Service", serviceID)
	}
	if !svc.Active {
		return nil, apperrors.InvalidInput("service is not currently bookable: " + svc.Name)
	}
	return svc, nil
}

// priceLine computes base price plus option impacts. Percentage impacts apply
// to the service's own base price, not the accumulated line total, so option
// order never changes the result.
func priceLine(svc *model.CatalogService, selectedOptions []string) (decimal.Decimal, error) {
	base, err := decimal.NewFromString(svc.BasePrice)
	if err != nil {
		return decimal.Zero, apperrors.Internal("Service has a malformed base price", err)
	}

	total := base
	for _, name := range selectedOptions {
		option, found := findOption(svc, name)
		if !found {
			return decimal.Zero, apperrors.InvalidInput("unknown option '" + name + "' for service " + svc.Name)
		}
		if option.ImpactType == "" || option.ImpactValue == "" {
			continue
		}

		value, err := decimal.NewFromString(option.ImpactValue)
		if err != nil {
			return decimal.Zero, apperrors.Internal("Option has a malformed impact value", err)
		}

		switch option.ImpactType {
		case model.ImpactFixed:
			total = total.Add(value)
		case model.ImpactPercentage:
			total = total.Add(base.Mul(value).Div(decimal.NewFromInt(100)))
		}
	}
	return total, nil
}

func findOption(svc *model.CatalogService, name string) (model.ServiceOption, bool) {
	for _, option := range svc.Options {
		if option.Name == name {
			return option, true
		}
	}
	return model.ServiceOption{}, false
}

func discountAmount(discount *model.Discount, subtotal decimal.Decimal) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(discount.Value)
	if err != nil {
		return decimal.Zero, apperrors.Internal("Discount has a malformed value", err)
	}

	switch discount.Type {
	case model.DiscountTypePercentage:
		return subtotal.Mul(value).Div(decimal.NewFromInt(100)), nil
	case model.DiscountTypeFixedAmount:
		if value.GreaterThan(subtotal) {
			return subtotal, nil
		}
		return value, nil
	default:
		return decimal.Zero, apperrors.Internal("Discount has an unknown type: "+discount.Type, nil)
	}
}
