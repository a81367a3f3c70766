package server

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type companyParams struct {
	Company string `query:"company" validate:"required"`
}

type roleParams struct {
	Role    string `query:"role" validate:"required"`
	Company string `query:"company" validate:"required"`
}

type personParams struct {
	Person     string `query:"person" validate:"required_without=ProfileURL"`
	Company    string `query:"company" validate:"required_without=ProfileURL"`
	ProfileURL string `query:"profile_url" validate:"omitempty,url"`
}

type connectionsParams struct {
	PersonName  string `query:"person_name" validate:"required_without=ProfileURL"`
	CompanyName string `query:"company_name" validate:"required"`
	ProfileURL  string `query:"profile_url" validate:"omitempty,url"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("query")
	})
	return v
}

// bind fills the string fields of dst from the request's query string by
// their query tag, then validates dst.
func (s *Server) bind(r *http.Request, dst interface{}) error {
	q := r.URL.Query()
	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("query")
		if name == "" || v.Field(i).Kind() != reflect.String {
			continue
		}
		v.Field(i).SetString(strings.TrimSpace(q.Get(name)))
	}

	err := s.validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("missing required parameter: %s", fe.Field()))
		case "required_without":
			msgs = append(msgs, fmt.Sprintf("missing required parameter: %s (or provide profile_url)", fe.Field()))
		case "url":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid URL", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("invalid parameter: %s", fe.Field()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// compact drops empty parameters so they are neither keyed nor echoed
func compact(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
