package apiclient

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/jualearn/jualearn-web/core"
)

// pwdMaxSim is the similarity ratio above which a password is considered
// a trivial variation of one of the user's own attributes.
const pwdMaxSim = 0.7

var errPasswordTooSimilar = core.FieldError{
	Field: "password",
	Error: "password is too similar to your username, email or name",
}

// validatePasswordSimilarity rejects passwords that are near-copies of
// the user's identifying attributes. The server enforces its own rules;
// this catches the obvious cases before a round trip.
func validatePasswordSimilarity(pwd string, attrs ...string) error {
	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if getRatio(lpwd, strings.ToLower(attr)) >= pwdMaxSim {
			return core.NewValidationError(nil, errPasswordTooSimilar)
		}
	}
	return nil
}
