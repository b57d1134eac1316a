package user

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/tkimaro/shule/core"
)

var (
	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"
)

func init() {
	core.Validate.RegisterStructValidation(userStructValidation, NewUser{})
	core.Validate.RegisterStructValidation(userStructValidation, UpdateUser{})
	core.Validate.RegisterStructValidation(userStructValidation, ResetUserPassword{})
	core.RegisterCustomTranslation(pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(pwdAttrSimTag, pwdAttrSimText)
}

// userStructValidation applies the password policy wherever a plaintext
// password enters the system.
func userStructValidation(sl validator.StructLevel) {
	switch v := sl.Current().Interface().(type) {
	case NewUser:
		validatePassword(v.Password, v.Username, v.Email, v.FirstName, v.LastName, sl)
	case UpdateUser:
		if v.Password.Valid && v.Password.String != "" {
			validatePassword(v.Password.String, v.Username.String, v.Email.String, v.FirstName.String, v.LastName.String, sl)
		}
	case ResetUserPassword:
		validatePassword(v.Password, "", "", "", "", sl)
	}
}

// validatePassword applies the password policy to the provided password:
// - minLen: 6
// - no whitespace
// - not entirely numeric
// - no user attrs similarity
func validatePassword(pwd, uname, email, firstName, lastName string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	pwdLen := len(pwd)
	if pwdLen == 0 {
		return // `required` tags report the absence
	}
	if pwdLen < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}

	var digitCount int
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == pwdLen {
		reportErr(pwdNotAllNumTag)
		return
	}

	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(strings.ToLower(usrAttr), "")).QuickRatio()
	}
	lpwd := strings.ToLower(pwd)
	if getRatio(lpwd, uname) >= pwdMaxSim ||
		getRatio(lpwd, email) >= pwdMaxSim ||
		getRatio(lpwd, firstName) >= pwdMaxSim ||
		getRatio(lpwd, lastName) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
	}
}
