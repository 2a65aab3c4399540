package courseclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"learnhub/internal/apiclient"
	"learnhub/pkg/domain"
)

// Client calls the course endpoints.
type Client struct {
	api *apiclient.Client
}

// NewClient constructs a course client on top of api.
func NewClient(api *apiclient.Client) *Client {
	return &Client{api: api}
}

func (c *Client) List(ctx context.Context) apiclient.Result[[]domain.Course] {
	return c.list(ctx, "/course", "courses")
}

func (c *Client) Get(ctx context.Context, id string) apiclient.Result[*domain.Course] {
	resp, err := c.api.Do(ctx, http.MethodGet, coursePath(id), nil)
	return apiclient.Normalize[*domain.Course](resp, err, nil, apiclient.ObjectField[domain.Course]("course"))
}

func (c *Client) Create(ctx context.Context, in domain.CourseInput) apiclient.Result[*domain.Ack] {
	resp, err := c.api.Do(ctx, http.MethodPost, "/course", in)
	return apiclient.Normalize[*domain.Ack](resp, err, nil, ackPayload)
}

func (c *Client) Update(ctx context.Context, id string, in domain.CourseInput) apiclient.Result[*domain.Ack] {
	resp, err := c.api.Do(ctx, http.MethodPut, coursePath(id), in)
	return apiclient.Normalize[*domain.Ack](resp, err, nil, ackPayload)
}

func (c *Client) Delete(ctx context.Context, id string) apiclient.Result[*domain.Ack] {
	resp, err := c.api.Do(ctx, http.MethodDelete, coursePath(id), nil)
	return apiclient.Normalize[*domain.Ack](resp, err, nil, ackPayload)
}

// Enroll adds the session's student to the course and returns the updated
// course. Duplicate enrollment is decided by the backend.
func (c *Client) Enroll(ctx context.Context, id string) apiclient.Result[*domain.Course] {
	resp, err := c.api.Do(ctx, http.MethodPost, coursePath(id)+"/enroll", nil)
	return apiclient.Normalize[*domain.Course](resp, err, nil, apiclient.ObjectOrField("course", hasID))
}

// Enrolled lists the courses the session's student is enrolled in.
func (c *Client) Enrolled(ctx context.Context) apiclient.Result[[]domain.Course] {
	return c.list(ctx, "/course/my-enrolled", "enrolledCourses")
}

// InstructorCourses lists the courses taught by the session's instructor.
func (c *Client) InstructorCourses(ctx context.Context) apiclient.Result[[]domain.Course] {
	return c.list(ctx, "/course/instructor/my-courses", "courses")
}

func (c *Client) list(ctx context.Context, path, field string) apiclient.Result[[]domain.Course] {
	resp, err := c.api.Do(ctx, http.MethodGet, path, nil)
	return apiclient.Normalize(resp, err, []domain.Course{}, apiclient.ListField[domain.Course](field))
}

func coursePath(id string) string {
	return fmt.Sprintf("/course/%s", url.PathEscape(id))
}

// ackPayload accepts any 2xx body; a bare course body is folded into Course.
var ackPayload apiclient.Extractor[*domain.Ack] = func(data json.RawMessage) (*domain.Ack, bool, error) {
	ack, ok, err := apiclient.Object[domain.Ack](nil)(data)
	if err != nil || !ok {
		return nil, ok, err
	}
	if ack.Course == nil {
		if bare, ok, err := apiclient.Object(hasID)(data); err == nil && ok {
			ack.Course = bare
		}
	}
	return ack, true, nil
}

func hasID(course *domain.Course) bool {
	return course.ID != ""
}
