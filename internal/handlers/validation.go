package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

// ValidationErrors - поле -> список сообщений, отдаётся в message при 422.
type ValidationErrors map[string][]string

func (v ValidationErrors) add(field, message string) {
	v[field] = append(v[field], message)
}

var registerOnce sync.Once

// registerFieldNames заставляет validator называть поля по тегу form,
// чтобы ключи в ответе совпадали с параметрами запроса.
func registerFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindQuery разбирает query в dst. intFields - параметры, которые должны быть
// целыми числами. gin прерывает разбор на первом нечисловом значении, поэтому
// такие параметры проверяются заранее и убираются из запроса, а остальные поля
// проходят обычную валидацию.
func bindQuery(c *gin.Context, dst interface{}, intFields ...string) ValidationErrors {
	errs := ValidationErrors{}

	req := c.Request
	query := req.URL.Query()
	for _, name := range intFields {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		if _, err := strconv.Atoi(raw); err != nil {
			errs.add(name, fmt.Sprintf("The %s field must be an integer.", attribute(name)))
			query.Del(name)
		}
	}
	if len(errs) > 0 {
		req = req.Clone(req.Context())
		req.URL.RawQuery = query.Encode()
	}

	if err := binding.Query.Bind(req, dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs.add(fe.Field(), fieldMessage(fe))
			}
		} else if len(errs) == 0 {
			errs.add("query", "The query parameters are invalid.")
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func attribute(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func fieldMessage(fe validator.FieldError) string {
	name := attribute(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "datetime":
		return fmt.Sprintf("The %s field must match the format Y-m-d.", name)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", name)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", name, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must be at least %s characters.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", name, fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", name)
	}
}

// validDate - строгий формат YYYY-MM-DD с проверкой календаря.
func validDate(value string) bool {
	_, err := time.Parse(dateLayout, value)
	return err == nil && len(value) == len(dateLayout)
}

func intOr(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}
