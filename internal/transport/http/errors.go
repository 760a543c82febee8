package http

import (
	"database/sql"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"rfqpulse/internal/analytics"
	"rfqpulse/internal/errors"
	"rfqpulse/internal/parsing"
)

// renderError maps service and domain errors onto the API error model and
// renders them. Unknown errors become 500s with the detail suppressed.
func renderError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	apiErr := classify(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	}
	render.Render(w, r, errors.NewErrorResponse(apiErr))
}

func classify(err error) *errors.APIError {
	var apiErr *errors.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	var parseErr *parsing.ParseError
	switch {
	case stderrors.As(err, &parseErr),
		stderrors.Is(err, parsing.ErrUnknownLayout),
		stderrors.Is(err, parsing.ErrEmptyGrid):
		return errors.UnknownLayoutError(err)
	}

	var subsetErr *analytics.SubsetSpaceError
	if stderrors.As(err, &subsetErr) {
		return errors.NewWithDetails(http.StatusUnprocessableEntity,
			"SUBSET_SPACE_EXCEEDED", "Too many bidders for subset enumeration", err.Error())
	}

	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.ErrRFQNotFound
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		switch appErr.Type {
		case errors.ErrTypeValidation:
			return validationAPIError(appErr)
		case errors.ErrTypeConflict:
			return errors.ConflictError(appErr.Message)
		case errors.ErrTypeNotFound:
			return errors.New(errors.ErrNotFound.StatusCode, errors.ErrNotFound.ErrorCode, appErr.Message)
		case errors.ErrTypeParsing:
			return errors.UnknownLayoutError(appErr)
		case errors.ErrTypeStorage:
			return errors.ErrStorage
		}
	}

	return errors.ErrInternalServer
}

// validationAPIError unpacks struct-validation causes into per-field detail;
// anything else keeps its flat message.
func validationAPIError(appErr *errors.AppError) *errors.APIError {
	var fieldErrs validator.ValidationErrors
	if stderrors.As(appErr, &fieldErrs) {
		fields := make([]errors.ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, errors.ValidationError{
				Field:   fe.Field(),
				Message: fe.Tag(),
			})
		}
		return errors.NewValidationErrors(fields)
	}
	return errors.NewValidationError(appErr.Message)
}
