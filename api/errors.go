package api

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-things/middleware/callerware"
)

// ErrorResponse is the JSON body sent for every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return c.Status(ferr.Code).JSON(ErrorResponse{Error: ferr.Message})
	}

	if errors.Is(err, callerware.ErrBasicMissingOrInvalid) {
		err = goerrors.Wrap(err, goerrors.CategoryBadInput, err.Error()).
			WithCode(goerrors.CodeBadRequest)
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := StatusCode(richErr)

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"error", err,
			"path", c.Path(),
			"method", c.Method(),
		)
	} else {
		s.logger.Info("request rejected",
			"error", richErr.Message,
			"category", richErr.Category,
			"text_code", richErr.TextCode,
			"path", c.Path(),
			"details", print.MaybePrettyJSON(richErr.Metadata),
		)
	}

	return c.Status(status).JSON(ErrorResponse{
		Error: richErr.Message,
		Code:  richErr.TextCode,
	})
}

// StatusCode maps an error to its HTTP status. The category decides first so
// a denial is always a 403 and a missing caller always a 401.
func StatusCode(err *goerrors.Error) int {
	if err == nil {
		return http.StatusInternalServerError
	}

	switch err.Category {
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	}

	if err.Code >= 400 && err.Code < 600 {
		return err.Code
	}

	return http.StatusInternalServerError
}
