package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fornihq/forni-backend/api/responses"
	"github.com/fornihq/forni-backend/api/validators"
	surplusbagsvc "github.com/fornihq/forni-backend/internal/surplusbags"
	pkgerrors "github.com/fornihq/forni-backend/pkg/errors"
	"github.com/fornihq/forni-backend/pkg/logger"
)

type createSurplusBagRequest struct {
	BakeryID      string          `json:"bakery_id" validate:"required,uuid"`
	Title         string          `json:"title" validate:"required"`
	Description   *string         `json:"description,omitempty"`
	Category      *string         `json:"category,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	OriginalValue decimal.Decimal `json:"original_value"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	Quantity      int             `json:"quantity" validate:"required,min=1"`
	PickupStart   time.Time       `json:"pickup_start" validate:"required"`
	PickupEnd     time.Time       `json:"pickup_end" validate:"required"`
	ImageURL      *string         `json:"image_url,omitempty"`
}

func (b createSurplusBagRequest) toInput() (surplusbagsvc.CreateBagInput, error) {
	bakeryID, err := uuid.Parse(b.BakeryID)
	if err != nil {
		return surplusbagsvc.CreateBagInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bakery id")
	}
	return surplusbagsvc.CreateBagInput{
		BakeryID:      bakeryID,
		Title:         b.Title,
		Description:   b.Description,
		Category:      b.Category,
		Tags:          b.Tags,
		OriginalValue: b.OriginalValue,
		SalePrice:     b.SalePrice,
		Quantity:      b.Quantity,
		PickupStart:   b.PickupStart,
		PickupEnd:     b.PickupEnd,
		ImageURL:      b.ImageURL,
	}, nil
}

// SurplusBagCreate publishes a surplus bag for the caller's bakery.
func SurplusBagCreate(svc surplusbagsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "surplus bag service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createSurplusBagRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bag, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, bag)
	}
}

type updateSurplusBagRequest struct {
	Title         *string          `json:"title,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Category      *string          `json:"category,omitempty"`
	Tags          *[]string        `json:"tags,omitempty"`
	OriginalValue *decimal.Decimal `json:"original_value,omitempty"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty"`
	Quantity      *int             `json:"quantity,omitempty" validate:"omitempty,min=0"`
	PickupStart   *time.Time       `json:"pickup_start,omitempty"`
	PickupEnd     *time.Time       `json:"pickup_end,omitempty"`
	Status        *string          `json:"status,omitempty"`
	ImageURL      *string          `json:"image_url,omitempty"`
}

// SurplusBagUpdate applies a partial update to a surplus bag.
func SurplusBagUpdate(svc surplusbagsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "surplus bag service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bagID, err := pathUUID(r, "bagId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateSurplusBagRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bag, err := svc.Update(r.Context(), actor, bagID, surplusbagsvc.UpdateBagInput{
			Title:         body.Title,
			Description:   body.Description,
			Category:      body.Category,
			Tags:          body.Tags,
			OriginalValue: body.OriginalValue,
			SalePrice:     body.SalePrice,
			Quantity:      body.Quantity,
			PickupStart:   body.PickupStart,
			PickupEnd:     body.PickupEnd,
			Status:        body.Status,
			ImageURL:      body.ImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, bag)
	}
}

// SurplusBagDelete removes a surplus bag.
func SurplusBagDelete(svc surplusbagsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "surplus bag service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bagID, err := pathUUID(r, "bagId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, bagID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// SurplusBagGet returns one surplus bag by id.
func SurplusBagGet(svc surplusbagsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "surplus bag service unavailable"))
			return
		}

		bagID, err := pathUUID(r, "bagId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bag, err := svc.Get(r.Context(), bagID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, bag)
	}
}

// SurplusBagList returns active bags, optionally scoped to a bakery or tag set.
func SurplusBagList(svc surplusbagsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "surplus bag service unavailable"))
			return
		}

		bakeryID, err := validators.ParseQueryUUID(r, "bakery_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bags, err := svc.List(r.Context(), surplusbagsvc.ListFilter{
			BakeryID: bakeryID,
			Tags:     validators.ParseQueryTags(r, "tags"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, bags)
	}
}
