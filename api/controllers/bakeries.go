package controllers

import (
	"net/http"

	"github.com/fornihq/forni-backend/api/responses"
	"github.com/fornihq/forni-backend/api/validators"
	bakerysvc "github.com/fornihq/forni-backend/internal/bakeries"
	reviewsvc "github.com/fornihq/forni-backend/internal/reviews"
	pkgerrors "github.com/fornihq/forni-backend/pkg/errors"
	"github.com/fornihq/forni-backend/pkg/logger"
)

type createBakeryRequest struct {
	Name         string   `json:"name" validate:"required"`
	Description  *string  `json:"description,omitempty"`
	Address      *string  `json:"address,omitempty"`
	City         *string  `json:"city,omitempty"`
	PostalCode   *string  `json:"postal_code,omitempty"`
	Phone        *string  `json:"phone,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	OpeningHours *string  `json:"opening_hours,omitempty"`
	ImageURL     *string  `json:"image_url,omitempty"`
}

func (b createBakeryRequest) toInput() bakerysvc.CreateBakeryInput {
	return bakerysvc.CreateBakeryInput{
		Name:         b.Name,
		Description:  b.Description,
		Address:      b.Address,
		City:         b.City,
		PostalCode:   b.PostalCode,
		Phone:        b.Phone,
		Latitude:     b.Latitude,
		Longitude:    b.Longitude,
		OpeningHours: b.OpeningHours,
		ImageURL:     b.ImageURL,
	}
}

// BakeryCreate registers a bakery owned by the caller.
func BakeryCreate(svc bakerysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bakery service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createBakeryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bakery, err := svc.Create(r.Context(), actor, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, bakery)
	}
}

type updateBakeryRequest struct {
	Name         *string  `json:"name,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Address      *string  `json:"address,omitempty"`
	City         *string  `json:"city,omitempty"`
	PostalCode   *string  `json:"postal_code,omitempty"`
	Phone        *string  `json:"phone,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	OpeningHours *string  `json:"opening_hours,omitempty"`
	ImageURL     *string  `json:"image_url,omitempty"`
	IsActive     *bool    `json:"is_active,omitempty"`
}

// BakeryUpdate applies a partial update; only the owner or an admin may call it.
func BakeryUpdate(svc bakerysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bakery service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bakeryID, err := pathUUID(r, "bakeryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateBakeryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bakery, err := svc.Update(r.Context(), actor, bakeryID, bakerysvc.UpdateBakeryInput{
			Name:         body.Name,
			Description:  body.Description,
			Address:      body.Address,
			City:         body.City,
			PostalCode:   body.PostalCode,
			Phone:        body.Phone,
			Latitude:     body.Latitude,
			Longitude:    body.Longitude,
			OpeningHours: body.OpeningHours,
			ImageURL:     body.ImageURL,
			IsActive:     body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, bakery)
	}
}

// BakeryDelete soft deletes a bakery.
func BakeryDelete(svc bakerysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bakery service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bakeryID, err := pathUUID(r, "bakeryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, bakeryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// BakeryGet returns one bakery by id.
func BakeryGet(svc bakerysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bakery service unavailable"))
			return
		}

		bakeryID, err := pathUUID(r, "bakeryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bakery, err := svc.Get(r.Context(), bakeryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, bakery)
	}
}

// BakeryList returns active bakeries, optionally filtered by product tag.
func BakeryList(svc bakerysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bakery service unavailable"))
			return
		}

		bakeries, err := svc.List(r.Context(), bakerysvc.ListFilter{
			ProductTag: r.URL.Query().Get("tag"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, bakeries)
	}
}

// BakeryMine lists the caller's own bakeries.
func BakeryMine(svc bakerysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bakery service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bakeries, err := svc.Mine(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, bakeries)
	}
}

// BakeryNearby returns active bakeries within the requested radius,
// sorted by distance.
func BakeryNearby(svc bakerysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bakery service unavailable"))
			return
		}

		lat, okLat, err := validators.ParseQueryFloat(r, "lat")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lng, okLng, err := validators.ParseQueryFloat(r, "lng")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !okLat || !okLng {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng query parameters are required"))
			return
		}
		radius, _, err := validators.ParseQueryFloat(r, "radius")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bakeries, err := svc.Nearby(r.Context(), bakerysvc.NearbyQuery{
			Latitude:  lat,
			Longitude: lng,
			RadiusKm:  radius,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, bakeries)
	}
}

// BakeryReviews lists the reviews left on a bakery.
func BakeryReviews(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		bakeryID, err := pathUUID(r, "bakeryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reviews, err := svc.ListByBakery(r.Context(), bakeryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, reviews)
	}
}
