package fakeapi

import (
	"net/http"
	"reflect"
	"strconv"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/jualearn/jualearn-web/core/apiclient"
	"github.com/jualearn/jualearn-web/core/session"
)

func (a account) checkPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (s *Server) findUser(username string) (account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.users {
		if acct.Username == username {
			return acct, true
		}
	}
	return account{}, false
}

// AddUser seeds an account with a bcrypt-hashed password.
func (s *Server) AddUser(usr apiclient.User, password string) (apiclient.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return apiclient.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	usr.ID = s.nextID
	s.nextID++
	s.users = append(s.users, account{User: usr, PasswordHash: hash})
	return usr, nil
}

// SeedDefaults loads one account per role plus a couple of resources,
// enough to click through every page in development.
func (s *Server) SeedDefaults() error {
	seed := []struct {
		usr apiclient.User
		pwd string
	}{
		{apiclient.User{Username: "amina", Email: "amina@jualearn.test", Role: string(session.RoleStudent), FirstName: "Amina", LastName: "Odhiambo"}, "studentpass"},
		{apiclient.User{Username: "kamau", Email: "kamau@jualearn.test", Role: string(session.RoleTeacher), FirstName: "Kamau", LastName: "Njoroge"}, "teacherpass"},
		{apiclient.User{Username: "wanjiru", Email: "wanjiru@jualearn.test", Role: string(session.RoleAdmin), FirstName: "Wanjiru", LastName: "Mwangi"}, "adminpass"},
	}
	for _, sd := range seed {
		if _, err := s.AddUser(sd.usr, sd.pwd); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects = append(s.subjects,
		apiclient.Subject{ID: s.takeID(), Name: "Mathematics", Description: "KCSE mathematics"},
		apiclient.Subject{ID: s.takeID(), Name: "Kiswahili", Description: "Lugha na fasihi"},
	)
	s.lessons = append(s.lessons,
		apiclient.Lesson{ID: s.takeID(), Title: "Quadratic equations", Content: "Solving by factorisation.", Subject: s.subjects[0].ID},
	)
	s.notifications = append(s.notifications,
		apiclient.Notification{ID: s.takeID(), Message: "Welcome to JuaLearn!"},
	)
	return nil
}

// takeID must be called with s.mu held.
func (s *Server) takeID() int {
	id := s.nextID
	s.nextID++
	return id
}

// registerCollection wires list/create/retrieve/update/delete for one
// in-memory resource slice. IDs are assigned from the shared counter; the
// DRF-style trailing slash is preserved on every route.
func registerCollection[T any](g *echo.Group, prefix string, s *Server, items *[]T) {
	g.GET(prefix+"/", func(ctx echo.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		out := make([]T, len(*items))
		copy(out, *items)
		return ctx.JSON(http.StatusOK, out)
	})

	g.POST(prefix+"/", func(ctx echo.Context) error {
		var item T
		if err := ctx.Bind(&item); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed body")
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		setID(&item, s.takeID())
		*items = append(*items, item)
		return ctx.JSON(http.StatusCreated, item)
	})

	g.GET(prefix+"/:id/", func(ctx echo.Context) error {
		id, _ := strconv.Atoi(ctx.Param("id"))
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, item := range *items {
			if getID(item) == id {
				return ctx.JSON(http.StatusOK, item)
			}
		}
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	})

	g.PUT(prefix+"/:id/", func(ctx echo.Context) error {
		id, _ := strconv.Atoi(ctx.Param("id"))
		var item T
		if err := ctx.Bind(&item); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed body")
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := range *items {
			if getID((*items)[i]) == id {
				setID(&item, id)
				(*items)[i] = item
				return ctx.JSON(http.StatusOK, item)
			}
		}
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	})

	g.DELETE(prefix+"/:id/", func(ctx echo.Context) error {
		id, _ := strconv.Atoi(ctx.Param("id"))
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := range *items {
			if getID((*items)[i]) == id {
				*items = append((*items)[:i], (*items)[i+1:]...)
				return ctx.NoContent(http.StatusNoContent)
			}
		}
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	})
}

// every resource type carries an `ID int` field
func getID(item interface{}) int {
	return int(reflect.ValueOf(item).FieldByName("ID").Int())
}

func setID(item interface{}, id int) {
	reflect.ValueOf(item).Elem().FieldByName("ID").SetInt(int64(id))
}
