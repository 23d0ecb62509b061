package member_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-team-directory/member"
)

func validFields() member.Fields {
	return member.Fields{
		Name:  "Charlie Davis",
		Role:  "Designer",
		Email: "charlie@company.com",
		Bio:   "Pixel perfect.",
	}
}

func TestValidateFields_Valid(t *testing.T) {
	assert.NoError(t, member.ValidateFields(validFields()))
}

func TestValidateFields_MissingRoleOnly(t *testing.T) {
	f := validFields()
	f.Role = ""

	err := member.ValidateFields(f)
	require.Error(t, err)

	verr := member.AsValidation(err)
	require.NotNil(t, verr)
	assert.False(t, verr.FromServer)
	assert.Equal(t, map[string]string{member.FieldRole: member.MsgRequired}, verr.Fields)
}

func TestValidateFields_AllEmpty(t *testing.T) {
	verr := member.AsValidation(member.ValidateFields(member.Fields{}))
	require.NotNil(t, verr)

	for _, name := range member.FieldNames {
		assert.Equal(t, member.MsgRequired, verr.Field(name), name)
	}
}

func TestValidateFields_Blank(t *testing.T) {
	f := validFields()
	f.Name = "   "

	verr := member.AsValidation(member.ValidateFields(f))
	require.NotNil(t, verr)
	assert.Equal(t, member.MsgRequired, verr.Field(member.FieldName))
}

func TestValidateFields_BadEmail(t *testing.T) {
	f := validFields()
	f.Email = "not-an-email"

	verr := member.AsValidation(member.ValidateFields(f))
	require.NotNil(t, verr)
	assert.Equal(t, member.MsgInvalidEmail, verr.Field(member.FieldEmail))
	assert.Len(t, verr.Fields, 1)
}

func TestValidateFields_EmailFormatOnly(t *testing.T) {
	// Domains are never resolved: reserved and unknown hosts still pass.
	for _, email := range []string{"a@team.invalid", "hana@company.com", "ops@nowhere.example"} {
		f := validFields()
		f.Email = email
		assert.NoError(t, member.ValidateFields(f), email)
	}
}
