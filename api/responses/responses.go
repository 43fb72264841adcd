package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
	"github.com/angelmondragon/servicedesk-backend/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteError maps err onto the error envelope. Uncoded errors become
// INTERNAL_ERROR and never leak their message.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	if logg != nil {
		logRejection(ctx, logg, err, meta.HTTPStatus)
	}
	writeJSON(w, meta.HTTPStatus, types.ErrorEnvelope{Error: apiError(typed, meta)})
}

func apiError(e *pkgerrors.Error, meta pkgerrors.Metadata) types.APIError {
	out := types.APIError{Code: string(e.Code()), Message: meta.PublicMessage}
	if meta.CallerFacing && e.Message() != "" {
		out.Message = e.Message()
	}
	if meta.DetailsAllowed {
		out.Details = e.Details()
	}
	return out
}

// logRejection logs server faults as errors and caller mistakes as warnings.
func logRejection(ctx context.Context, logg *logger.Logger, err error, status int) {
	fields := pkgerrors.Dump(err).Fields()
	fields["status"] = status
	ctx = logg.WithFields(ctx, fields)
	if status >= http.StatusInternalServerError {
		logg.Error(ctx, "request.error", err)
		return
	}
	logg.Warn(logg.WithField(ctx, "error", err.Error()), "request.rejected")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"encode response","err":"%v"}`, err)
	}
}
