package web

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jualearn/jualearn-web/core/apiclient"
)

// dashboardData feeds the per-role landing page.
type dashboardData struct {
	Subjects    []apiclient.Subject
	Assignments []apiclient.Assignment
	Unread      int
}

func (s *server) dashboard(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	reqCtx := ctx.Request().Context()

	var data dashboardData
	var err error
	if data.Subjects, err = bs.Client.Subjects.List(reqCtx); err != nil {
		return errors.Wrap(err, "listing subjects")
	}
	if data.Assignments, err = bs.Client.Assignments.List(reqCtx); err != nil {
		return errors.Wrap(err, "listing assignments")
	}
	if notifs, err := bs.Client.Notifications.List(reqCtx); err == nil {
		for _, n := range notifs {
			if !n.Read {
				data.Unread++
			}
		}
	}
	return ctx.Render(http.StatusOK, "dashboard", s.page(ctx, "Dashboard", data))
}

// Subjects

func (s *server) subjects(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	subjects, err := bs.Client.Subjects.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing subjects")
	}
	return ctx.Render(http.StatusOK, "subjects", s.page(ctx, "Subjects", subjects))
}

func (s *server) createSubject(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	_, err := bs.Client.Subjects.Create(ctx.Request().Context(), apiclient.Subject{
		Name:        ctx.FormValue("name"),
		Description: ctx.FormValue("description"),
	})
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.Redirect(http.StatusSeeOther, ctx.Request().URL.Path)
}

// Lessons

func (s *server) lessons(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	lessons, err := bs.Client.Lessons.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing lessons")
	}
	return ctx.Render(http.StatusOK, "lessons", s.page(ctx, "Lessons", lessons))
}

func (s *server) createLesson(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	subjectID, _ := strconv.Atoi(ctx.FormValue("subject"))
	_, err := bs.Client.Lessons.Create(ctx.Request().Context(), apiclient.Lesson{
		Title:   ctx.FormValue("title"),
		Content: ctx.FormValue("content"),
		Subject: subjectID,
	})
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.Redirect(http.StatusSeeOther, ctx.Request().URL.Path)
}

// Assignments

func (s *server) assignments(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	assignments, err := bs.Client.Assignments.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing assignments")
	}
	return ctx.Render(http.StatusOK, "assignments", s.page(ctx, "Assignments", assignments))
}

func (s *server) createAssignment(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	_, err := bs.Client.Assignments.Create(ctx.Request().Context(), apiclient.Assignment{
		Title:       ctx.FormValue("title"),
		Description: ctx.FormValue("description"),
		DueDate:     ctx.FormValue("due_date"),
	})
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.Redirect(http.StatusSeeOther, ctx.Request().URL.Path)
}

// Quizzes

func (s *server) quizzes(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	quizzes, err := bs.Client.Quizzes.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing quizzes")
	}
	return ctx.Render(http.StatusOK, "quizzes", s.page(ctx, "Quizzes", quizzes))
}

func (s *server) createQuiz(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	subjectID, _ := strconv.Atoi(ctx.FormValue("subject"))
	_, err := bs.Client.Quizzes.Create(ctx.Request().Context(), apiclient.Quiz{
		Title:   ctx.FormValue("title"),
		Subject: subjectID,
	})
	if err != nil {
		return errors.Wrap(err, "creating quiz")
	}
	return ctx.Redirect(http.StatusSeeOther, ctx.Request().URL.Path)
}

// Enrollments

func (s *server) enrollments(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	enrollments, err := bs.Client.Enrollments.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing enrollments")
	}
	return ctx.Render(http.StatusOK, "enrollments", s.page(ctx, "My subjects", enrollments))
}

func (s *server) enroll(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	subjectID, _ := strconv.Atoi(ctx.FormValue("subject"))
	_, err := bs.Client.Enrollments.Create(ctx.Request().Context(), apiclient.Enrollment{
		Student: bs.Manager.Current().UserID,
		Subject: subjectID,
	})
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.Redirect(http.StatusSeeOther, "/student/enrollments")
}

// Notifications

func (s *server) notifications(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	notifs, err := bs.Client.Notifications.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing notifications")
	}
	return ctx.Render(http.StatusOK, "notifications", s.page(ctx, "Notifications", notifs))
}

func (s *server) readNotification(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	id, _ := strconv.Atoi(ctx.Param("id"))
	if _, err := bs.Client.Notifications.MarkRead(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	return ctx.Redirect(http.StatusSeeOther, "/notifications")
}

// Users (admin)

func (s *server) users(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	users, err := bs.Client.Users.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing users")
	}
	return ctx.Render(http.StatusOK, "users", s.page(ctx, "Users", users))
}

func (s *server) deleteUser(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	id, _ := strconv.Atoi(ctx.Param("id"))
	if err := bs.Client.Users.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.Redirect(http.StatusSeeOther, "/admin/users")
}

// Search

func (s *server) search(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	query := ctx.QueryParam("q")

	var result apiclient.SearchResult
	if query != "" {
		var err error
		if result, err = bs.Client.Search(ctx.Request().Context(), query); err != nil {
			return errors.Wrap(err, "searching")
		}
	}
	return ctx.Render(http.StatusOK, "search", s.page(ctx, "Search", struct {
		Query  string
		Result apiclient.SearchResult
	}{query, result}))
}

// Profile

func (s *server) profile(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	usr, err := bs.Client.Profile(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "fetching profile")
	}
	return ctx.Render(http.StatusOK, "profile", s.page(ctx, "My profile", usr))
}

func (s *server) updateProfile(ctx echo.Context) error {
	bs := getBrowserSession(ctx)
	_, err := bs.Client.UpdateProfile(ctx.Request().Context(), apiclient.User{
		Email:     ctx.FormValue("email"),
		FirstName: ctx.FormValue("first_name"),
		LastName:  ctx.FormValue("last_name"),
	})
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.Redirect(http.StatusSeeOther, "/profile")
}
