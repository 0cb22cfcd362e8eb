package domain

import "testing"

func TestParamSpecValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		spec    ParamSpec
		wantErr error
	}{
		{
			name: "valid_string",
			spec: ParamSpec{Key: "fund_code", Name: "Fund code", Kind: ParamKindString},
		},
		{
			name: "valid_select_with_options",
			spec: ParamSpec{
				Key:  "fund_type",
				Kind: ParamKindSelect,
				Options: []SelectOption{
					{Label: "All", Value: 10},
				},
			},
		},
		{
			name:    "empty_key",
			spec:    ParamSpec{Kind: ParamKindString},
			wantErr: ErrEmptyParamKey,
		},
		{
			name:    "select_without_options",
			spec:    ParamSpec{Key: "fund_type", Kind: ParamKindSelect},
			wantErr: ErrMissingOptions,
		},
		{
			name:    "unknown_kind",
			spec:    ParamSpec{Key: "x", Kind: "checkbox"},
			wantErr: ErrInvalidKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.spec.Validate(); err != tt.wantErr {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTaskTypeConfigValidate(t *testing.T) {
	t.Parallel()

	valid := TaskTypeConfig{
		TypeName:       "fund_nav",
		DisplayName:    "Fund NAV update",
		DefaultTimeout: 300,
		Params: []ParamSpec{
			{Key: "fund_code", Kind: ParamKindExternalLookup, Required: true},
			{Key: "start_date", Kind: ParamKindDate, Required: true},
		},
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	empty := TaskTypeConfig{}
	if err := empty.Validate(); err != ErrEmptyTypeName {
		t.Errorf("Expected error %v, got %v", ErrEmptyTypeName, err)
	}

	badParam := valid
	badParam.Params = []ParamSpec{{Kind: ParamKindString}}
	if err := badParam.Validate(); err != ErrEmptyParamKey {
		t.Errorf("Expected error %v, got %v", ErrEmptyParamKey, err)
	}
}
