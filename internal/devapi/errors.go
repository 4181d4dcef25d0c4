package devapi

import (
	"errors"
	"runtime/debug"
	"sort"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/afiatamanna06/csedu-web-sub001/internal/observability"
	apperrors "github.com/afiatamanna06/csedu-web-sub001/pkg/util"
)

// validationProblem mirrors one entry of a 422 detail list.
type validationProblem struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// errorMiddleware renders failures as {"detail": ...}: a list of problems
// for validation failures and a plain string otherwise.
func errorMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}

			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				metrics.RecordError(c.Path(), c.Method(), "HTTP_"+strconv.Itoa(fiberErr.Code))
				_ = c.Status(fiberErr.Code).JSON(fiber.Map{"detail": fiberErr.Message})
				err = nil
				return
			}

			domainErr := apperrors.ToDomainError(err)
			metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
			if domainErr.HTTPStatus >= 500 {
				logger.Error("request failed", zap.Error(domainErr))
			}

			var body fiber.Map
			if domainErr.Code == apperrors.CodeValidationFailed && len(domainErr.Details) > 0 {
				body = fiber.Map{"detail": problemList(domainErr.Details)}
			} else {
				body = fiber.Map{"detail": domainErr.Message}
			}
			_ = c.Status(domainErr.HTTPStatus).JSON(body)
			err = nil
		}()
		return c.Next()
	}
}

func problemList(details map[string]any) []validationProblem {
	fields := make([]string, 0, len(details))
	for field := range details {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make([]validationProblem, 0, len(fields))
	for _, field := range fields {
		msg, _ := details[field].(string)
		out = append(out, validationProblem{
			Loc:  []string{"body", field},
			Msg:  problemMessage(msg),
			Type: "value_error",
		})
	}
	return out
}

func problemMessage(problem string) string {
	switch problem {
	case "required":
		return "field required"
	case "invalid":
		return "value is not a valid email address"
	case "too short":
		return "ensure this value has at least 6 characters"
	case "":
		return "invalid value"
	}
	return problem
}
