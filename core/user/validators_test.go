package user

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signbank/signbank/core"
)

func Test_passwordPolicyViolation(t *testing.T) {
	commonPasswords = []string{"password1!", "qwerty123!"}
	defer func() { commonPasswords = nil }()

	tests := []struct {
		name  string
		pwd   string
		uname string
		want  string
	}{
		{name: "too short", pwd: "aB1!", want: pwdMinLenTag},
		{name: "whitespace", pwd: "aB1! long enough", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", want: pwdNotAllNumTag},
		{name: "no special", pwd: "Abcdefgh1", want: pwdComplexityTag},
		{name: "no upper", pwd: "abcdefg1!", want: pwdComplexityTag},
		{name: "similar to username", pwd: "Signer01!", uname: "signer01", want: pwdAttrSimTag},
		{name: "common", pwd: "Password1!", want: pwdNoCommonTag},
		{name: "valid", pwd: "Hand$hape42", uname: "signer01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, passwordPolicyViolation(tt.pwd, "", tt.uname, ""))
		})
	}
}

func TestNewUser_structValidation(t *testing.T) {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	err := validate.Struct(NewUser{Name: "X", Password: "Hand$hape42", PasswordConfirm: "Hand$hape42", Roles: []string{"root:"}})
	require.Error(t, err)

	fields := make(map[string]string)
	for _, fe := range err.(validator.ValidationErrors) {
		fields[fe.Field()] = fe.Translate(translator)
	}
	assert.Equal(t, map[string]string{
		"username": usernameOrEmailText,
		"email":    usernameOrEmailText,
		"roles":    allRolesText,
	}, fields)

	err = validate.Struct(NewUser{
		Name: "X", Username: "editor", Password: "Hand$hape42", PasswordConfirm: "Hand$hape42",
		Roles: []string{RoleEditor},
	})
	assert.NoError(t, err)
}

func TestRolesHavePerm(t *testing.T) {
	assert.True(t, RolesHavePerm([]string{RoleResearcher}, PermExportCSV))
	assert.False(t, RolesHavePerm([]string{RoleResearcher}, PermChangeGloss))
	assert.True(t, RolesHavePerm([]string{RoleResearcher, RoleEditor}, PermChangeGloss))
	assert.False(t, RolesHavePerm(nil, PermSearchGloss))
	assert.True(t, RolesHavePerm([]string{RoleAdmin}, PermManageUsers))
}
