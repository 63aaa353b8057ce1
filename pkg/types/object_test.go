package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectStatusString(t *testing.T) {
	tests := []struct {
		name   string
		status ObjectStatus
		want   string
	}{
		{name: "available", status: StatusAvailable, want: "available"},
		{name: "solicited", status: StatusSolicited, want: "solicited"},
		{name: "devolved", status: StatusDevolved, want: "devolved"},
		{name: "unrecognized value", status: ObjectStatus(9), want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ObjectStatus
		wantErr error
	}{
		{name: "available", input: "available", want: StatusAvailable},
		{name: "solicited", input: "solicited", want: StatusSolicited},
		{name: "devolved", input: "devolved", want: StatusDevolved},
		{name: "unknown name", input: "pending", wantErr: ErrInvalidStatus},
		{name: "empty name", input: "", wantErr: ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObjectSearchText(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
		want   string
	}{
		{
			name: "values joined in field order",
			fields: []Field{
				{Name: "number", Value: "555555"},
				{Name: "color", Value: "blue"},
			},
			want: "555555 blue",
		},
		{
			name: "empty values skipped",
			fields: []Field{
				{Name: "number", Value: "555555"},
				{Name: "notes", Value: ""},
				{Name: "color", Value: "blue"},
			},
			want: "555555 blue",
		},
		{name: "no fields", fields: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := Object{Fields: tt.fields}
			assert.Equal(t, tt.want, obj.SearchText())
		})
	}
}

func TestObjectConsistent(t *testing.T) {
	now := time.Now()
	claim := &Claim{Applicant: "a1", DevolutionCode: "c0d3s", SolicitedAt: now}

	tests := []struct {
		name string
		obj  Object
		want bool
	}{
		{
			name: "available without claim",
			obj:  Object{Status: StatusAvailable},
			want: true,
		},
		{
			name: "solicited with full claim",
			obj:  Object{Status: StatusSolicited, Claim: claim},
			want: true,
		},
		{
			name: "devolved with timestamp",
			obj:  Object{Status: StatusDevolved, DevolvedAt: now},
			want: true,
		},
		{
			name: "solicited without claim",
			obj:  Object{Status: StatusSolicited},
			want: false,
		},
		{
			name: "available with leftover claim",
			obj:  Object{Status: StatusAvailable, Claim: claim},
			want: false,
		},
		{
			name: "solicited with partial claim",
			obj:  Object{Status: StatusSolicited, Claim: &Claim{Applicant: "a1"}},
			want: false,
		},
		{
			name: "available with devolved timestamp",
			obj:  Object{Status: StatusAvailable, DevolvedAt: now},
			want: false,
		},
		{
			name: "devolved without timestamp",
			obj:  Object{Status: StatusDevolved},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.obj.Consistent())
		})
	}
}

func TestObjectValidate(t *testing.T) {
	valid := Object{Category: "Document", Type: "ID", Institution: "i1"}

	tests := []struct {
		name    string
		mutate  func(*Object)
		wantErr error
	}{
		{name: "valid object", mutate: func(o *Object) {}},
		{name: "missing category", mutate: func(o *Object) { o.Category = "" }, wantErr: ErrMissingCategory},
		{name: "missing type", mutate: func(o *Object) { o.Type = "" }, wantErr: ErrMissingType},
		{name: "missing institution", mutate: func(o *Object) { o.Institution = "" }, wantErr: ErrMissingInstitution},
		{name: "invalid status", mutate: func(o *Object) { o.Status = ObjectStatus(7) }, wantErr: ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := valid
			tt.mutate(&obj)
			err := obj.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
