package analytics

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fornihq/forni-backend/internal/authz"
	bakery "github.com/fornihq/forni-backend/internal/bakeries"
	"github.com/fornihq/forni-backend/pkg/db/models"
	"github.com/fornihq/forni-backend/pkg/enums"
	pkgerrors "github.com/fornihq/forni-backend/pkg/errors"
)

// WastePreventedDTO reports how much food value would have been wasted
// without the surplus sales: the gap between original value and sale
// price, summed over every completed surplus-bag line.
type WastePreventedDTO struct {
	TotalValue decimal.Decimal `json:"totalValue"`
	BagsSold   int             `json:"bagsSold"`
}

// Service exposes marketplace analytics.
type Service interface {
	WastePrevented(ctx context.Context, actor authz.Actor) (*WastePreventedDTO, error)
}

type lineReader interface {
	CompletedSurplusLines(ctx context.Context, bakeryIDs []uuid.UUID) ([]SurplusLine, error)
}

type ownedBakeryReader interface {
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Bakery, error)
}

type service struct {
	lines    lineReader
	bakeries ownedBakeryReader
}

// NewService constructs the analytics service.
func NewService(lines lineReader, bakeries *bakery.Repository) (Service, error) {
	if lines == nil {
		return nil, fmt.Errorf("analytics repository required")
	}
	if bakeries == nil {
		return nil, fmt.Errorf("bakery repository required")
	}
	return &service{lines: lines, bakeries: bakeries}, nil
}

func (s *service) WastePrevented(ctx context.Context, actor authz.Actor) (*WastePreventedDTO, error) {
	var bakeryIDs []uuid.UUID
	switch {
	case actor.IsAdmin():
		// Global totals.
	case actor.Role == enums.UserRoleBakeryOwner:
		owned, err := s.bakeries.FindByOwner(ctx, actor.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list owned bakeries")
		}
		if len(owned) == 0 {
			return &WastePreventedDTO{TotalValue: decimal.Zero}, nil
		}
		for _, b := range owned {
			bakeryIDs = append(bakeryIDs, b.ID)
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "analytics are limited to bakery owners and admins")
	}

	lines, err := s.lines.CompletedSurplusLines(ctx, bakeryIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load completed surplus lines")
	}

	result := &WastePreventedDTO{TotalValue: decimal.Zero}
	for _, line := range lines {
		saved := line.OriginalValue.Sub(line.SalePrice).Mul(decimal.NewFromInt(int64(line.Quantity)))
		result.TotalValue = result.TotalValue.Add(saved)
		result.BagsSold += line.Quantity
	}
	return result, nil
}
