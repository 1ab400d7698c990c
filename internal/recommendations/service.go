// Package recommendation picks surplus bags to surface to a customer.
// The policy is bakery affinity only: bags from bakeries the customer
// has ordered from before, falling back to the globally soonest pickups.
package recommendation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	surplusbag "github.com/fornihq/forni-backend/internal/surplusbags"
	"github.com/fornihq/forni-backend/pkg/db/models"
	pkgerrors "github.com/fornihq/forni-backend/pkg/errors"
)

// MaxRecommendations caps how many bags any recommendation set holds.
const MaxRecommendations = 10

// Service exposes the recommendation selector.
type Service interface {
	ForUser(ctx context.Context, userID uuid.UUID) ([]surplusbag.BagDTO, error)
}

type bagLister interface {
	ListActiveInStock(ctx context.Context, bakeryIDs []uuid.UUID, limit int) ([]models.SurplusBag, error)
}

type orderHistoryReader interface {
	BakeryIDsByCustomer(ctx context.Context, customerID uuid.UUID) ([]uuid.UUID, error)
}

type service struct {
	bags    bagLister
	history orderHistoryReader
}

// NewService constructs the recommendation service.
func NewService(bags bagLister, history orderHistoryReader) (Service, error) {
	if bags == nil {
		return nil, fmt.Errorf("surplus bag repository required")
	}
	if history == nil {
		return nil, fmt.Errorf("order history reader required")
	}
	return &service{bags: bags, history: history}, nil
}

func (s *service) ForUser(ctx context.Context, userID uuid.UUID) ([]surplusbag.BagDTO, error) {
	bakeryIDs, err := s.history.BakeryIDsByCustomer(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order history")
	}

	var preferred []models.SurplusBag
	if len(bakeryIDs) > 0 {
		preferred, err = s.bags.ListActiveInStock(ctx, bakeryIDs, MaxRecommendations)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list preferred bags")
		}
	}

	rows := preferred
	if len(rows) == 0 {
		rows, err = s.bags.ListActiveInStock(ctx, nil, MaxRecommendations)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list fallback bags")
		}
	}

	dtos := make([]surplusbag.BagDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *surplusbag.NewBagDTO(&rows[i]))
	}
	return dtos, nil
}
