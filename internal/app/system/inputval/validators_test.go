package inputval

import "testing"

func TestValidate(t *testing.T) {
	type TestInput struct {
		Name  string `validate:"required,max=10" label:"Full name"`
		Email string `validate:"required,email" label:"Email address"`
	}

	tests := []struct {
		name       string
		input      TestInput
		wantErrors bool
		wantFirst  string
	}{
		{"valid input", TestInput{Name: "John", Email: "john@example.com"}, false, ""},
		{"missing name", TestInput{Email: "john@example.com"}, true, "Full name is required."},
		{"name too long", TestInput{Name: "VeryLongNameThatExceedsLimit", Email: "john@example.com"}, true, "Full name must be at most 10 characters."},
		{"invalid email", TestInput{Name: "John", Email: "not-an-email"}, true, "A valid email address is required."},
		{"missing both", TestInput{}, true, "Full name is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.input)
			if result.HasErrors() != tt.wantErrors {
				t.Errorf("Validate() HasErrors = %v, want %v", result.HasErrors(), tt.wantErrors)
			}
			if tt.wantErrors && result.First() != tt.wantFirst {
				t.Errorf("Validate() First() = %q, want %q", result.First(), tt.wantFirst)
			}
		})
	}
}

func TestValidate_JSONNameWithoutLabel(t *testing.T) {
	type in struct {
		YearClass int `json:"yearClass" validate:"gte=1900"`
	}
	r := Validate(in{YearClass: 12})
	if !r.HasErrors() {
		t.Fatal("expected error")
	}
	if _, ok := r.Fields()["yearClass"]; !ok {
		t.Errorf("expected field keyed by json name, got %v", r.Fields())
	}
}

func TestResult_All(t *testing.T) {
	r := &Result{}
	if r.All() != "" {
		t.Errorf("All() = %q, want empty", r.All())
	}

	r = &Result{Errors: []FieldError{{Message: "Error 1"}, {Message: "Error 2"}}}
	if want := "Error 1; Error 2"; r.All() != want {
		t.Errorf("All() = %q, want %q", r.All(), want)
	}
}

func TestValidate_CustomRules(t *testing.T) {
	type NIMInput struct {
		NIM string `validate:"required,nim" label:"NIM"`
	}

	if r := Validate(NIMInput{NIM: "2021-001.A"}); r.HasErrors() {
		t.Errorf("valid nim has errors: %v", r.Errors)
	}
	if r := Validate(NIMInput{NIM: "20 21"}); !r.HasErrors() {
		t.Error("nim with a space should have errors")
	}
}
