package errors

import (
	"context"
	"errors"
	"io/fs"
	"net/http"

	"github.com/dm3k/dm3k/pkg/adapter"
	"github.com/dm3k/dm3k/pkg/cache"
	"github.com/dm3k/dm3k/pkg/document"
	"github.com/dm3k/dm3k/pkg/layout"
	"github.com/dm3k/dm3k/pkg/model"
	"github.com/dm3k/dm3k/pkg/pipeline"
	"github.com/dm3k/dm3k/pkg/render"
	"github.com/dm3k/dm3k/pkg/solver"
	"github.com/dm3k/dm3k/pkg/store"
)

// domainCodes maps library sentinels to codes. Order matters: the first
// sentinel found in the chain wins, so specific errors come before the
// stage errors that wrap them.
var domainCodes = []struct {
	sentinel error
	code     Code
}{
	{layout.ErrCyclicContainment, ErrCodeCyclicContainment},
	{layout.ErrInvalidTrace, ErrCodeInvalidTrace},
	{model.ErrDuplicateName, ErrCodeDuplicateName},
	{model.ErrDuplicateLink, ErrCodeDuplicateLink},
	{model.ErrMissingBudget, ErrCodeMissingBudget},
	{model.ErrUnknownReference, ErrCodeUnknownReference},
	{model.ErrUnknownAllocation, ErrCodeUnknownAllocation},
	{model.ErrMixedContainment, ErrCodeMixedContainment},
	{model.ErrInvalidConstraintType, ErrCodeInvalidConstraint},
	{model.ErrInvalidName, ErrCodeInvalidName},
	{adapter.ErrPresentation, ErrCodePresentationFailed},
	{document.ErrInvalidDocument, ErrCodeInvalidDocument},
	{document.ErrEmptyWrapper, ErrCodeInvalidDocument},
	{document.ErrImport, ErrCodeImportFailed},
	{layout.ErrLayout, ErrCodeLayoutFailed},
	{store.ErrNotFound, ErrCodeDocumentNotFound},
	{store.ErrInvalidID, ErrCodeInvalidInput},
	{store.ErrUnavailable, ErrCodeNetwork},
	{cache.ErrNetwork, ErrCodeNetwork},
	{solver.ErrSolver, ErrCodeSolverError},
	{solver.ErrUnavailable, ErrCodeNetwork},
	{pipeline.ErrNoSolver, ErrCodeUnsupported},
	{render.ErrConverterMissing, ErrCodeUnsupported},
	{context.DeadlineExceeded, ErrCodeTimeout},
	{fs.ErrNotExist, ErrCodeFileNotFound},
}

// FromDomain classifies err by the sentinel errors of the DM3K packages.
// Errors that already carry a code are returned unchanged; unknown errors
// become ErrCodeInternal. FromDomain(nil) is nil.
func FromDomain(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	for _, dc := range domainCodes {
		if errors.Is(err, dc.sentinel) {
			return Wrap(dc.code, err, "%s", dc.sentinel.Error())
		}
	}
	return Wrap(ErrCodeInternal, err, "internal error")
}

// HTTPStatus returns the response status for a code.
func HTTPStatus(code Code) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeInvalidDocument, ErrCodeInvalidFormat,
		ErrCodeInvalidName, ErrCodeInvalidTrace, ErrCodeInvalidWidthFunc:
		return http.StatusBadRequest
	case ErrCodeDuplicateName, ErrCodeDuplicateLink, ErrCodeMissingBudget,
		ErrCodeUnknownReference, ErrCodeUnknownAllocation, ErrCodeMixedContainment,
		ErrCodeInvalidConstraint, ErrCodeCyclicContainment,
		ErrCodeImportFailed, ErrCodeLayoutFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeNotFound, ErrCodeDocumentNotFound, ErrCodeFileNotFound:
		return http.StatusNotFound
	case ErrCodeNetwork, ErrCodeSolverError:
		return http.StatusBadGateway
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
