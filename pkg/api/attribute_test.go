package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/argyll/worker/pkg/api"
)

func TestAttributeValidate(t *testing.T) {
	tests := []struct {
		name string
		attr *api.AttributeSpec
		err  error
	}{
		{
			name: "required string",
			attr: &api.AttributeSpec{
				Role: api.RoleRequired,
				Type: api.TypeString,
			},
		},
		{
			name: "optional with default",
			attr: &api.AttributeSpec{
				Role:    api.RoleOptional,
				Type:    api.TypeNumber,
				Default: "42",
			},
		},
		{
			name: "const with value",
			attr: &api.AttributeSpec{
				Role:    api.RoleConst,
				Type:    api.TypeString,
				Default: `"fixed"`,
			},
		},
		{
			name: "invalid role",
			attr: &api.AttributeSpec{
				Role: "bogus",
				Type: api.TypeString,
			},
			err: api.ErrInvalidAttributeRole,
		},
		{
			name: "invalid type",
			attr: &api.AttributeSpec{
				Role: api.RoleRequired,
				Type: "integer",
			},
			err: api.ErrInvalidAttributeType,
		},
		{
			name: "const without default",
			attr: &api.AttributeSpec{
				Role: api.RoleConst,
				Type: api.TypeString,
			},
			err: api.ErrConstRequiresDefault,
		},
		{
			name: "default on required",
			attr: &api.AttributeSpec{
				Role:    api.RoleRequired,
				Type:    api.TypeString,
				Default: `"nope"`,
			},
			err: api.ErrDefaultNotAllowed,
		},
		{
			name: "default on output",
			attr: &api.AttributeSpec{
				Role:    api.RoleOutput,
				Type:    api.TypeString,
				Default: `"nope"`,
			},
			err: api.ErrDefaultNotAllowed,
		},
		{
			name: "for_each on array",
			attr: &api.AttributeSpec{
				Role:    api.RoleRequired,
				Type:    api.TypeArray,
				ForEach: true,
			},
		},
		{
			name: "for_each on any",
			attr: &api.AttributeSpec{
				Role:    api.RoleRequired,
				Type:    api.TypeAny,
				ForEach: true,
			},
		},
		{
			name: "for_each on string",
			attr: &api.AttributeSpec{
				Role:    api.RoleRequired,
				Type:    api.TypeString,
				ForEach: true,
			},
			err: api.ErrForEachRequiresArray,
		},
		{
			name: "for_each on output",
			attr: &api.AttributeSpec{
				Role:    api.RoleOutput,
				Type:    api.TypeArray,
				ForEach: true,
			},
			err: api.ErrForEachNotAllowedOutput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.attr.Validate("attr")
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAttributeDefaultTyping(t *testing.T) {
	tests := []struct {
		name     string
		attrType api.AttributeType
		value    string
		ok       bool
	}{
		{"string matches", api.TypeString, `"hello"`, true},
		{"bare number against string", api.TypeString, "1", false},
		{"number matches", api.TypeNumber, "1", true},
		{"float matches", api.TypeNumber, "1.5", true},
		{"string against number", api.TypeNumber, `"1"`, false},
		{"boolean true", api.TypeBoolean, "true", true},
		{"boolean false", api.TypeBoolean, "false", true},
		{"number against boolean", api.TypeBoolean, "1", false},
		{"object matches", api.TypeObject, `{"a":1}`, true},
		{"array against object", api.TypeObject, "[1]", false},
		{"array matches", api.TypeArray, "[1,2]", true},
		{"object against array", api.TypeArray, `{"a":1}`, false},
		{"null matches", api.TypeNull, "null", true},
		{"string against null", api.TypeNull, `"null"`, false},
		{"any accepts anything", api.TypeAny, `{"a":[1]}`, true},
		{"invalid JSON", api.TypeString, `{`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attr := &api.AttributeSpec{
				Role:    api.RoleOptional,
				Type:    tt.attrType,
				Default: tt.value,
			}
			err := attr.Validate("attr")
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, api.ErrInvalidDefaultValue)
		})
	}
}

func TestAttributeDefaultValue(t *testing.T) {
	attr := &api.AttributeSpec{
		Role:    api.RoleOptional,
		Type:    api.TypeNumber,
		Default: "42",
	}
	val, ok := attr.DefaultValue()
	assert.True(t, ok)
	assert.Equal(t, float64(42), val)

	attr = &api.AttributeSpec{
		Role:    api.RoleOptional,
		Type:    api.TypeObject,
		Default: `{"a":1}`,
	}
	val, ok = attr.DefaultValue()
	assert.True(t, ok)
	assert.Equal(t, map[string]any{"a": float64(1)}, val)

	attr = &api.AttributeSpec{Role: api.RoleRequired, Type: api.TypeString}
	_, ok = attr.DefaultValue()
	assert.False(t, ok)
}

func TestAttributeRoles(t *testing.T) {
	required := &api.AttributeSpec{Role: api.RoleRequired}
	optional := &api.AttributeSpec{Role: api.RoleOptional}
	constant := &api.AttributeSpec{Role: api.RoleConst}
	output := &api.AttributeSpec{Role: api.RoleOutput}

	assert.True(t, required.IsInput())
	assert.True(t, optional.IsInput())
	assert.True(t, constant.IsInput())
	assert.False(t, output.IsInput())
	assert.True(t, output.IsOutput())
	assert.False(t, required.IsOutput())
}

func TestAttributeEqual(t *testing.T) {
	a := &api.AttributeSpec{Role: api.RoleRequired, Type: api.TypeString}
	b := &api.AttributeSpec{Role: api.RoleRequired, Type: api.TypeString}
	c := &api.AttributeSpec{Role: api.RoleOptional, Type: api.TypeString}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))

	var nilSpec *api.AttributeSpec
	assert.True(t, nilSpec.Equal(nil))
}
