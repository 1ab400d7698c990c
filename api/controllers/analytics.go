package controllers

import (
	"net/http"

	"github.com/fornihq/forni-backend/api/responses"
	analyticssvc "github.com/fornihq/forni-backend/internal/analytics"
	pkgerrors "github.com/fornihq/forni-backend/pkg/errors"
	"github.com/fornihq/forni-backend/pkg/logger"
)

// AnalyticsWastePrevented reports surplus value saved through completed orders.
func AnalyticsWastePrevented(svc analyticssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.WastePrevented(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}
