package validator

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type option struct {
	Date      string `validate:"required,date"`
	StartTime string `validate:"omitempty,clock"`
}

type submission struct {
	Name    string   `validate:"notblank,max=10"`
	Status  string   `validate:"status"`
	Options []option `validate:"required,min=1,dive"`
}

func TestValidate(t *testing.T) {
	valid := submission{Name: "Bob", Status: "maybe", Options: []option{{Date: "2025-01-10", StartTime: "09:30"}}}

	tests := []struct {
		name   string
		mutate func(*submission)
		want   string
	}{
		{"valid", func(*submission) {}, ""},
		{"blank name", func(s *submission) { s.Name = "   " }, ErrFieldRequired},
		{"long name", func(s *submission) { s.Name = strings.Repeat("x", 11) }, ErrFieldExceedsMaxLen},
		{"bad status", func(s *submission) { s.Status = "yes" }, "Status must be one of"},
		{"no options", func(s *submission) { s.Options = []option{} }, ErrFieldBelowMinLen},
		{"bad date", func(s *submission) { s.Options[0].Date = "10.01.2025" }, ErrInvalidFormat},
		{"bad clock", func(s *submission) { s.Options[0].StartTime = "9:30pm" }, ErrInvalidFormat},
		{"empty clock allowed", func(s *submission) { s.Options[0].StartTime = "" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			s.Options = append([]option(nil), valid.Options...)
			tt.mutate(&s)

			err := Validate(context.Background(), s)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestValidateReportsNamespace(t *testing.T) {
	err := Validate(context.Background(), submission{Name: "Bob", Status: "maybe", Options: []option{{Date: "bad"}}})
	if err == nil || !strings.HasSuffix(err.Error(), "submission.Options[0].Date") {
		t.Errorf("err = %v", err)
	}
}

func TestValidateReturnsFieldError(t *testing.T) {
	err := Validate(context.Background(), submission{Name: "", Status: "maybe", Options: []option{{Date: "2025-01-10"}}})
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FieldError", err)
	}
	if fe.Field != "submission.Name" || fe.Msg != ErrFieldRequired {
		t.Errorf("field error = %+v", fe)
	}
}
