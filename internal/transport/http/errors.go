package http

import (
	"errors"
	"net/http"

	apierrors "plforecast/internal/errors"
	"plforecast/internal/services"
)

// ErrNoDatasetLoaded answers requests that need a dataset before one was uploaded.
var ErrNoDatasetLoaded = apierrors.New(http.StatusConflict, "CONFLICT",
	"No dataset loaded; upload a workbook or open the manual entry template first")

// serviceError maps service sentinels onto API errors. Anything else is returned
// unchanged for the error handler to classify.
func serviceError(err error) error {
	switch {
	case errors.Is(err, services.ErrNoDataset):
		return ErrNoDatasetLoaded
	case errors.Is(err, services.ErrEmptyQuestion):
		return apierrors.ErrValidation("question", "question is required")
	case errors.Is(err, services.ErrInvalidFileType):
		return apierrors.ErrValidation("file", "file must be an .xlsx, .xlsm or .xls workbook")
	}
	return err
}
