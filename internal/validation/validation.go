package validation

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/fhuszti/videos-ms-go/internal/uuid"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// videoMimeTypes are the container formats the transcoder accepts as input.
var videoMimeTypes = map[string]struct{}{
	"video/mp4":        {},
	"video/quicktime":  {},
	"video/webm":       {},
	"video/x-matroska": {},
	"video/x-msvideo":  {},
	"video/mpeg":       {},
}

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Tell the validator to use the JSON tag as the “field name”
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		// Grab the value of `json:"foo,omitempty"`
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			// fallback to the Go field name or skip
			return fld.Name
		}
		return name
	})

	// the nil UUID is treated as absent
	validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		id, ok := v.Interface().(uuid.UUID)
		if !ok || id == uuid.Nil {
			return ""
		}
		return id.String()
	}, uuid.UUID{})

	_ = validate.RegisterValidation("videomime", func(fl validator.FieldLevel) bool {
		mt := strings.ToLower(strings.TrimSpace(strings.SplitN(fl.Field().String(), ";", 2)[0]))
		_, ok := videoMimeTypes[mt]
		return ok
	})
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func ErrorsToJson(validationErrs error) (string, error) {
	errsMap := make(map[string]string)
	for _, fieldErr := range validationErrs.(validator.ValidationErrors) {
		errsMap[fieldErr.Field()] = fieldErr.Tag()
	}

	errsJson, err := json.Marshal(errsMap)
	if err != nil {
		return "", err
	}
	return string(errsJson), nil
}
