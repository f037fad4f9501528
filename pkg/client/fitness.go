package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "fitstudio/pkg/errors"
	"fitstudio/pkg/model"
)

// APIError is a non-2xx answer from the booking API.
type APIError struct {
	StatusCode int
	Detail     apperrors.ErrorDetail
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fitness api: %d %s: %s", e.StatusCode, e.Detail.ErrorType, e.Detail.Message)
}

// FitnessClient is a typed client for the class booking API.
type FitnessClient struct {
	httpClient *HttpClient
}

func NewFitnessClient(baseURL string) *FitnessClient {
	return &FitnessClient{
		httpClient: NewHttpClient(baseURL),
	}
}

// WaitForHealthy polls /health until the service answers or maxWait elapses.
func (c *FitnessClient) WaitForHealthy(ctx context.Context, maxWait time.Duration) error {
	return c.httpClient.WaitForHealthy(ctx, maxWait)
}

func (c *FitnessClient) ListClasses(ctx context.Context, timezone string) ([]*model.ClassView, error) {
	path := "/classes"
	if timezone != "" {
		path += "?timezone=" + url.QueryEscape(timezone)
	}
	var classes []*model.ClassView
	if err := c.get(ctx, path, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

func (c *FitnessClient) GetClass(ctx context.Context, id int64, timezone string) (*model.ClassView, error) {
	path := fmt.Sprintf("/classes/%d", id)
	if timezone != "" {
		path += "?timezone=" + url.QueryEscape(timezone)
	}
	var class model.ClassView
	if err := c.get(ctx, path, &class); err != nil {
		return nil, err
	}
	return &class, nil
}

// Book sends idempotencyKey as Idempotency-Key when it is not empty.
func (c *FitnessClient) Book(ctx context.Context, req model.BookingRequest, idempotencyKey string) (*model.BookingView, error) {
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}
	resp, err := c.httpClient.POST(ctx, "/book", req, headers)
	if err != nil {
		return nil, err
	}
	var booking model.BookingView
	if err := decode(resp, http.StatusCreated, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *FitnessClient) BookingsByEmail(ctx context.Context, email string) (*model.BookingList, error) {
	var list model.BookingList
	if err := c.get(ctx, "/bookings?client_email="+url.QueryEscape(email), &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *FitnessClient) Cancel(ctx context.Context, bookingID int64) (*model.BookingView, error) {
	resp, err := c.httpClient.POST(ctx, fmt.Sprintf("/bookings/%d/cancel", bookingID), struct{}{}, nil)
	if err != nil {
		return nil, err
	}
	var booking model.BookingView
	if err := decode(resp, http.StatusOK, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *FitnessClient) get(ctx context.Context, path string, target any) error {
	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return err
	}
	return decode(resp, http.StatusOK, target)
}

func decode(resp *Response, want int, target any) error {
	if resp.StatusCode != want {
		var body apperrors.ErrorResponse
		if err := resp.DecodeJSON(&body); err != nil {
			return &APIError{StatusCode: resp.StatusCode, Detail: apperrors.ErrorDetail{Message: string(resp.Body)}}
		}
		return &APIError{StatusCode: resp.StatusCode, Detail: body.Detail}
	}
	return resp.DecodeJSON(target)
}
