package apiclient

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Resource types, shaped after the API serializers. The client treats
// them as plain records; all business rules live server-side.

type (
	Subject struct {
		ID          int    `json:"id,omitempty"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	Lesson struct {
		ID      int    `json:"id,omitempty"`
		Title   string `json:"title"`
		Content string `json:"content"`
		Subject int    `json:"subject"`
	}

	Assignment struct {
		ID          int      `json:"id,omitempty"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		DueDate     string   `json:"due_date,omitempty"`
		Subject     *Subject `json:"subject,omitempty"`
		AssignedTo  *User    `json:"assigned_to,omitempty"`
		CreatedBy   *User    `json:"created_by,omitempty"`
	}

	Quiz struct {
		ID      int    `json:"id,omitempty"`
		Title   string `json:"title"`
		Subject int    `json:"subject"`
	}

	QuizQuestion struct {
		ID   int    `json:"id,omitempty"`
		Quiz int    `json:"quiz"`
		Text string `json:"text"`
	}

	QuizChoice struct {
		ID        int    `json:"id,omitempty"`
		Question  int    `json:"question"`
		Text      string `json:"text"`
		IsCorrect bool   `json:"is_correct,omitempty"`
	}

	Enrollment struct {
		ID      int `json:"id,omitempty"`
		Student int `json:"student"`
		Subject int `json:"subject"`
	}

	Notification struct {
		ID        int       `json:"id,omitempty"`
		Message   string    `json:"message"`
		Read      bool      `json:"read"`
		CreatedAt time.Time `json:"created_at,omitempty"`
	}

	User struct {
		ID             int    `json:"id,omitempty"`
		Username       string `json:"username"`
		Email          string `json:"email"`
		Role           string `json:"role,omitempty"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		ProfilePicture string `json:"profile_picture,omitempty"`
	}

	SearchResult struct {
		Subjects []Subject `json:"subjects"`
		Lessons  []Lesson  `json:"lessons"`
		Quizzes  []Quiz    `json:"quizzes"`
	}
)

// Services. Each mirrors one remote collection; the DRF router expects
// trailing slashes on every path.

type SubjectsService struct{ c *Client }

func (s *SubjectsService) List(ctx context.Context) ([]Subject, error) {
	var out []Subject
	err := s.c.get(ctx, "subjects/", &out)
	return out, err
}

func (s *SubjectsService) Get(ctx context.Context, id int) (Subject, error) {
	var out Subject
	err := s.c.get(ctx, fmt.Sprintf("subjects/%d/", id), &out)
	return out, err
}

func (s *SubjectsService) Create(ctx context.Context, in Subject) (Subject, error) {
	var out Subject
	err := s.c.post(ctx, "subjects/", in, &out)
	return out, err
}

func (s *SubjectsService) Update(ctx context.Context, id int, in Subject) (Subject, error) {
	var out Subject
	err := s.c.put(ctx, fmt.Sprintf("subjects/%d/", id), in, &out)
	return out, err
}

func (s *SubjectsService) Delete(ctx context.Context, id int) error {
	return s.c.delete(ctx, fmt.Sprintf("subjects/%d/", id))
}

type LessonsService struct{ c *Client }

func (s *LessonsService) List(ctx context.Context) ([]Lesson, error) {
	var out []Lesson
	err := s.c.get(ctx, "lessons/", &out)
	return out, err
}

func (s *LessonsService) BySubject(ctx context.Context, subjectID int) ([]Lesson, error) {
	var out []Lesson
	err := s.c.get(ctx, fmt.Sprintf("lessons/?subject=%d", subjectID), &out)
	return out, err
}

func (s *LessonsService) Get(ctx context.Context, id int) (Lesson, error) {
	var out Lesson
	err := s.c.get(ctx, fmt.Sprintf("lessons/%d/", id), &out)
	return out, err
}

func (s *LessonsService) Create(ctx context.Context, in Lesson) (Lesson, error) {
	var out Lesson
	err := s.c.post(ctx, "lessons/", in, &out)
	return out, err
}

func (s *LessonsService) Update(ctx context.Context, id int, in Lesson) (Lesson, error) {
	var out Lesson
	err := s.c.put(ctx, fmt.Sprintf("lessons/%d/", id), in, &out)
	return out, err
}

func (s *LessonsService) Delete(ctx context.Context, id int) error {
	return s.c.delete(ctx, fmt.Sprintf("lessons/%d/", id))
}

type AssignmentsService struct{ c *Client }

func (s *AssignmentsService) List(ctx context.Context) ([]Assignment, error) {
	var out []Assignment
	err := s.c.get(ctx, "assignments/", &out)
	return out, err
}

func (s *AssignmentsService) Get(ctx context.Context, id int) (Assignment, error) {
	var out Assignment
	err := s.c.get(ctx, fmt.Sprintf("assignments/%d/", id), &out)
	return out, err
}

func (s *AssignmentsService) Create(ctx context.Context, in Assignment) (Assignment, error) {
	var out Assignment
	err := s.c.post(ctx, "assignments/", in, &out)
	return out, err
}

func (s *AssignmentsService) Update(ctx context.Context, id int, in Assignment) (Assignment, error) {
	var out Assignment
	err := s.c.put(ctx, fmt.Sprintf("assignments/%d/", id), in, &out)
	return out, err
}

func (s *AssignmentsService) Delete(ctx context.Context, id int) error {
	return s.c.delete(ctx, fmt.Sprintf("assignments/%d/", id))
}

type QuizzesService struct{ c *Client }

func (s *QuizzesService) List(ctx context.Context) ([]Quiz, error) {
	var out []Quiz
	err := s.c.get(ctx, "quizzes/", &out)
	return out, err
}

func (s *QuizzesService) Get(ctx context.Context, id int) (Quiz, error) {
	var out Quiz
	err := s.c.get(ctx, fmt.Sprintf("quizzes/%d/", id), &out)
	return out, err
}

func (s *QuizzesService) Create(ctx context.Context, in Quiz) (Quiz, error) {
	var out Quiz
	err := s.c.post(ctx, "quizzes/", in, &out)
	return out, err
}

func (s *QuizzesService) Update(ctx context.Context, id int, in Quiz) (Quiz, error) {
	var out Quiz
	err := s.c.put(ctx, fmt.Sprintf("quizzes/%d/", id), in, &out)
	return out, err
}

func (s *QuizzesService) Delete(ctx context.Context, id int) error {
	return s.c.delete(ctx, fmt.Sprintf("quizzes/%d/", id))
}

type QuizQuestionsService struct{ c *Client }

func (s *QuizQuestionsService) ByQuiz(ctx context.Context, quizID int) ([]QuizQuestion, error) {
	var out []QuizQuestion
	err := s.c.get(ctx, fmt.Sprintf("quiz-questions/?quiz=%d", quizID), &out)
	return out, err
}

func (s *QuizQuestionsService) Create(ctx context.Context, in QuizQuestion) (QuizQuestion, error) {
	var out QuizQuestion
	err := s.c.post(ctx, "quiz-questions/", in, &out)
	return out, err
}

func (s *QuizQuestionsService) Update(ctx context.Context, id int, in QuizQuestion) (QuizQuestion, error) {
	var out QuizQuestion
	err := s.c.put(ctx, fmt.Sprintf("quiz-questions/%d/", id), in, &out)
	return out, err
}

func (s *QuizQuestionsService) Delete(ctx context.Context, id int) error {
	return s.c.delete(ctx, fmt.Sprintf("quiz-questions/%d/", id))
}

type QuizChoicesService struct{ c *Client }

func (s *QuizChoicesService) ByQuestion(ctx context.Context, questionID int) ([]QuizChoice, error) {
	var out []QuizChoice
	err := s.c.get(ctx, fmt.Sprintf("quiz-choices/?question=%d", questionID), &out)
	return out, err
}

func (s *QuizChoicesService) Create(ctx context.Context, in QuizChoice) (QuizChoice, error) {
	var out QuizChoice
	err := s.c.post(ctx, "quiz-choices/", in, &out)
	return out, err
}

func (s *QuizChoicesService) Update(ctx context.Context, id int, in QuizChoice) (QuizChoice, error) {
	var out QuizChoice
	err := s.c.put(ctx, fmt.Sprintf("quiz-choices/%d/", id), in, &out)
	return out, err
}

func (s *QuizChoicesService) Delete(ctx context.Context, id int) error {
	return s.c.delete(ctx, fmt.Sprintf("quiz-choices/%d/", id))
}

type EnrollmentsService struct{ c *Client }

func (s *EnrollmentsService) List(ctx context.Context) ([]Enrollment, error) {
	var out []Enrollment
	err := s.c.get(ctx, "enrollments/", &out)
	return out, err
}

func (s *EnrollmentsService) Create(ctx context.Context, in Enrollment) (Enrollment, error) {
	var out Enrollment
	err := s.c.post(ctx, "enrollments/", in, &out)
	return out, err
}

func (s *EnrollmentsService) Delete(ctx context.Context, id int) error {
	return s.c.delete(ctx, fmt.Sprintf("enrollments/%d/", id))
}

type NotificationsService struct{ c *Client }

func (s *NotificationsService) List(ctx context.Context) ([]Notification, error) {
	var out []Notification
	err := s.c.get(ctx, "notifications/", &out)
	return out, err
}

func (s *NotificationsService) MarkRead(ctx context.Context, id int) (Notification, error) {
	var out Notification
	err := s.c.put(ctx, fmt.Sprintf("notifications/%d/", id), Notification{ID: id, Read: true}, &out)
	return out, err
}

type UsersService struct{ c *Client }

func (s *UsersService) List(ctx context.Context) ([]User, error) {
	var out []User
	err := s.c.get(ctx, "users/", &out)
	return out, err
}

func (s *UsersService) Get(ctx context.Context, id int) (User, error) {
	var out User
	err := s.c.get(ctx, fmt.Sprintf("users/%d/", id), &out)
	return out, err
}

func (s *UsersService) Create(ctx context.Context, in User) (User, error) {
	var out User
	err := s.c.post(ctx, "users/", in, &out)
	return out, err
}

func (s *UsersService) Delete(ctx context.Context, id int) error {
	return s.c.delete(ctx, fmt.Sprintf("users/%d/", id))
}

// Search queries subjects, lessons and quizzes in one call.
func (c *Client) Search(ctx context.Context, query string) (SearchResult, error) {
	var out SearchResult
	err := c.get(ctx, "search/?q="+url.QueryEscape(query), &out)
	return out, err
}
