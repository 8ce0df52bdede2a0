package apiclient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/jualearn/jualearn-web/core"
	"github.com/jualearn/jualearn-web/core/session"
)

const (
	loginPath           = "token/"
	profilePath         = "users/me/"
	registerStudentPath = "register/student/"
	registerTeacherPath = "register/teacher/"
)

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	// tokenResponse is the login payload: the token pair plus the extra
	// identity fields the API includes alongside it.
	tokenResponse struct {
		Access    string       `json:"access"`
		Refresh   string       `json:"refresh"`
		Role      session.Role `json:"role"`
		FirstName string       `json:"firstName"`
		LastName  string       `json:"lastName"`
	}

	refreshRequest struct {
		Refresh string `json:"refresh"`
	}

	refreshResponse struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"` // optional rotation
	}

	RegisterRequest struct {
		// Role picks the registration endpoint; empty means student. The
		// server assigns the actual role from the endpoint, never the body.
		Role            string `json:"role,omitempty" validate:"omitempty,role"`
		Username        string `json:"username" validate:"required,min=3,alphanum_"`
		Email           string `json:"email" validate:"required,email"`
		Password        string `json:"password" validate:"required,min=8"`
		PasswordConfirm string `json:"-" validate:"required,eqfield=Password"`
		FirstName       string `json:"first_name" validate:"required"`
		LastName        string `json:"last_name"`
	}

	profileResponse struct {
		ID             int    `json:"id"`
		Username       string `json:"username"`
		Email          string `json:"email"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		ProfilePicture string `json:"profile_picture"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}

func (rr *RegisterRequest) Validate(validate *validator.Validate) error {
	rr.Username = core.CleanString(rr.Username, true /* lower */)
	rr.Email = core.CleanString(rr.Email, true /* lower */)
	rr.FirstName = core.CleanString(rr.FirstName)
	rr.LastName = core.CleanString(rr.LastName)
	if err := validate.Struct(rr); err != nil {
		return err
	}
	return validatePasswordSimilarity(rr.Password, rr.Username, rr.Email, rr.FirstName)
}

// Login authenticates against the token endpoint, completes the identity
// from the profile endpoint, and installs the resulting session.
func (c *Client) Login(ctx context.Context, creds LoginRequest) (session.Session, error) {
	status, body, err := c.transmit(ctx, request{method: http.MethodPost, path: loginPath, body: mustJSON(creds), anonymous: true})
	if err != nil {
		return session.Session{}, err
	}
	if status != http.StatusOK {
		// a 401 here is bad credentials, not an expired session
		return session.Session{}, &APIError{StatusCode: status, Body: body}
	}

	var tokens tokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return session.Session{}, errors.Wrap(err, "decoding login response")
	}
	if tokens.Access == "" || tokens.Refresh == "" {
		return session.Session{}, errors.New("login response missing token pair")
	}

	s := session.Session{
		Username:     creds.Username,
		Role:         tokens.Role,
		FirstName:    tokens.FirstName,
		LastName:     tokens.LastName,
		AccessToken:  tokens.Access,
		RefreshToken: tokens.Refresh,
	}

	// the login payload carries no email/id; fetch the rest of the
	// identity with the fresh token before the session is installed
	var prof profileResponse
	profReq := request{method: http.MethodGet, path: profilePath, overrideToken: tokens.Access}
	if status, body, err = c.transmit(ctx, profReq); err == nil && status == http.StatusOK {
		if err := json.Unmarshal(body, &prof); err == nil {
			s.UserID = prof.ID
			s.Email = prof.Email
			s.ProfilePicture = prof.ProfilePicture
			if s.FirstName == "" {
				s.FirstName = prof.FirstName
			}
			if s.LastName == "" {
				s.LastName = prof.LastName
			}
		}
	}

	if err := c.sessions.Login(s); err != nil {
		return session.Session{}, err
	}
	return s, nil
}

// RegisterStudent creates a student account. The server assigns the role.
func (c *Client) RegisterStudent(ctx context.Context, reg RegisterRequest) error {
	return c.post(ctx, registerStudentPath, reg, nil)
}

// RegisterTeacher creates a teacher account.
func (c *Client) RegisterTeacher(ctx context.Context, reg RegisterRequest) error {
	return c.post(ctx, registerTeacherPath, reg, nil)
}

// Profile fetches the logged-in user's profile.
func (c *Client) Profile(ctx context.Context) (User, error) {
	var usr User
	err := c.get(ctx, profilePath, &usr)
	return usr, err
}

// UpdateProfile updates the logged-in user's editable profile fields.
func (c *Client) UpdateProfile(ctx context.Context, upd User) (User, error) {
	var usr User
	err := c.put(ctx, profilePath, upd, &usr)
	return usr, err
}

// Logout discards the session. Purely local: the server keeps no
// session state beyond the token pair.
func (c *Client) Logout() {
	c.sessions.Logout()
}

// ValidationMessages maps an APIError carrying DRF-style field errors to
// form field messages; non-field errors come back under the empty key.
func ValidationMessages(apiErr *APIError) []core.FieldError {
	var fields map[string]interface{}
	if err := json.Unmarshal(apiErr.Body, &fields); err != nil {
		return []core.FieldError{{Field: "", Error: string(apiErr.Body)}}
	}
	flds := make([]core.FieldError, 0, len(fields))
	for field, msg := range fields {
		switch v := msg.(type) {
		case string:
			flds = append(flds, core.FieldError{Field: field, Error: v})
		case []interface{}:
			for _, m := range v {
				if s, ok := m.(string); ok {
					flds = append(flds, core.FieldError{Field: field, Error: s})
				}
			}
		}
	}
	return flds
}

func mustJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err) // only struct literals pass through here
	}
	return data
}
