package controllers

import (
	"net/http"

	"github.com/sharemeal/sharemeal-backend/api/middleware"
	"github.com/sharemeal/sharemeal-backend/api/responses"
	"github.com/sharemeal/sharemeal-backend/internal/access"
	pkgerrors "github.com/sharemeal/sharemeal-backend/pkg/errors"
	"github.com/sharemeal/sharemeal-backend/pkg/logger"
)

// requireActor writes UNAUTHORIZED and returns false when Auth did not run.
func requireActor(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (access.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return access.Actor{}, false
	}
	return actor, true
}

func serviceUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" unavailable"))
}
