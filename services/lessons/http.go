package lessons

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"coursehub/models/course"
	"coursehub/utils/apperror"

	"github.com/go-resty/resty/v2"
)

// HTTPDirectory asks the course service for lesson metadata. Responses use the
// platform envelope {status, message, data}.
type HTTPDirectory struct {
	client *resty.Client
}

type lessonEnvelope struct {
	Status  bool          `json:"status"`
	Message string        `json:"message"`
	Data    course.Lesson `json:"data"`
}

type lessonListEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    []course.Lesson `json:"data"`
}

func NewHTTPDirectory(baseURL, token string, timeout time.Duration) *HTTPDirectory {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &HTTPDirectory{client: client}
}

func (d *HTTPDirectory) Lesson(ctx context.Context, lessonID uint) (*course.Lesson, error) {
	var out lessonEnvelope
	resp, err := d.client.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatUint(uint64(lessonID), 10)).
		SetResult(&out).
		Get("/internal/lessons/{id}")
	if err != nil {
		return nil, fmt.Errorf("fetch lesson %d: %w", lessonID, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, apperror.NotFoundf("lesson %d not found", lessonID)
	}
	if resp.IsError() || !out.Status {
		return nil, fmt.Errorf("fetch lesson %d: course service returned %d %s", lessonID, resp.StatusCode(), out.Message)
	}
	return &out.Data, nil
}

func (d *HTTPDirectory) CourseLessons(ctx context.Context, courseID uint) ([]course.Lesson, error) {
	var out lessonListEnvelope
	resp, err := d.client.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatUint(uint64(courseID), 10)).
		SetResult(&out).
		Get("/internal/courses/{id}/lessons")
	if err != nil {
		return nil, fmt.Errorf("list lessons of course %d: %w", courseID, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, apperror.NotFoundf("course %d not found", courseID)
	}
	if resp.IsError() || !out.Status {
		return nil, fmt.Errorf("list lessons of course %d: course service returned %d %s", courseID, resp.StatusCode(), out.Message)
	}
	return out.Data, nil
}
