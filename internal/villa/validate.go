package villa

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/erazemk/magicvilla/internal/model"
	"github.com/erazemk/magicvilla/internal/patch"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// fieldProblems runs the structural constraints declared on VillaFields.
func fieldProblems(fields *model.VillaFields) ([]Problem, error) {
	err := validate.Struct(fields)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	problems := make([]Problem, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fieldProblem(fe))
	}
	return problems, nil
}

func fieldProblem(fe validator.FieldError) Problem {
	field := fe.Field()
	switch fe.Tag() {
	case "notblank", "required":
		return Problem{Field: field, Reason: "required", Message: field + " is required"}
	case "min":
		return Problem{Field: field, Reason: "min", Message: fmt.Sprintf("%s must be at least %s", field, fe.Param())}
	case "max":
		return Problem{Field: field, Reason: "max", Message: fmt.Sprintf("%s must be at most %s characters", field, fe.Param())}
	default:
		return Problem{Field: field, Reason: fe.Tag(), Message: fmt.Sprintf("%s failed %s validation", field, fe.Tag())}
	}
}

func checkID(op string, id int64) error {
	if id <= 0 {
		return invalid(op, Problem{Field: "id", Reason: ReasonInvalidID, Message: "id must be a positive integer"})
	}
	return nil
}

// validateCreate checks a create request. Everything except name uniqueness
// is checked before the store is touched.
func (s *Service) validateCreate(ctx context.Context, op string, in *model.VillaCreateDTO) error {
	if in == nil {
		return invalid(op, Problem{Reason: ReasonBodyRequired, Message: "request body is required"})
	}

	problems, err := fieldProblems(&in.VillaFields)
	if err != nil {
		return s.internal(ctx, op, err)
	}
	if in.ID != 0 {
		problems = append(problems, Problem{Field: "id", Reason: ReasonIDNotAllowed, Message: "id is assigned by the server"})
	}
	if len(problems) > 0 {
		return invalid(op, problems...)
	}

	existing, err := s.store.FindByName(ctx, in.Name)
	if err != nil {
		return s.internal(ctx, op, err)
	}
	if existing != nil {
		return invalid(op, Problem{Field: "nombre", Reason: ReasonNameExists, Message: "a villa with that name already exists"})
	}
	return nil
}

// validateReplace checks a replace request without touching the store. Name
// uniqueness is not re-checked.
func (s *Service) validateReplace(ctx context.Context, op string, id int64, in *model.VillaUpdateDTO) error {
	if in == nil {
		return invalid(op, Problem{Reason: ReasonBodyRequired, Message: "request body is required"})
	}
	if err := checkID(op, id); err != nil {
		return err
	}
	if in.ID != id {
		return invalid(op, Problem{Field: "id", Reason: ReasonIDMismatch,
			Message: fmt.Sprintf("body id %d does not match path id %d", in.ID, id)})
	}

	problems, err := fieldProblems(&in.VillaFields)
	if err != nil {
		return s.internal(ctx, op, err)
	}
	if len(problems) > 0 {
		return invalid(op, problems...)
	}
	return nil
}

// validatePatched re-checks a working copy after a patch was applied.
func (s *Service) validatePatched(ctx context.Context, op string, view *model.VillaUpdateDTO) error {
	problems, err := fieldProblems(&view.VillaFields)
	if err != nil {
		return s.internal(ctx, op, err)
	}
	if len(problems) > 0 {
		return invalid(op, problems...)
	}
	return nil
}

func patchProblem(err *patch.Error) Problem {
	field := strings.TrimPrefix(err.Path, "/")
	msg := fmt.Sprintf("operation %d (%s) on %s: %s", err.Index, err.Op, err.Path, err.Reason)
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return Problem{Field: field, Reason: string(err.Reason), Message: msg}
}
