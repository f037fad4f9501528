package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	apperrors "fitstudio/pkg/errors"
	"fitstudio/pkg/logger"
	"fitstudio/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// ────────────────────────────────────────────────
// Mock service for testing
// ────────────────────────────────────────────────

type mockBookingService struct {
	mu        sync.Mutex
	capacity  int32
	booked    atomic.Int32
	gotReq    *model.BookingRequest
	gotEmail  string
	gotID     int64
	cancelErr error
}

func (m *mockBookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.BookingView, error) {
	m.mu.Lock()
	m.gotReq = req
	m.mu.Unlock()
	if m.booked.Add(1) > m.capacity {
		m.booked.Add(-1)
		return nil, apperrors.Conflict("No available slots for this class", map[string]any{"class_id": req.ClassID})
	}
	return &model.BookingView{
		ID:               int64(m.booked.Load()),
		ClassID:          req.ClassID,
		ClientName:       req.ClientName,
		ClientEmail:      req.ClientEmail,
		BookingReference: "FBAAAA0001",
		BookingStatus:    model.BookingStatusConfirmed,
	}, nil
}

func (m *mockBookingService) Cancel(ctx context.Context, id int64) (*model.BookingView, error) {
	m.gotID = id
	if m.cancelErr != nil {
		return nil, m.cancelErr
	}
	return &model.BookingView{ID: id, BookingStatus: model.BookingStatusCancelled}, nil
}

func (m *mockBookingService) GetByEmail(ctx context.Context, email string) (*model.BookingList, error) {
	m.gotEmail = email
	return &model.BookingList{Bookings: []*model.BookingView{}, ClientEmail: email}, nil
}

// ────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────

func newRouter(svc *mockBookingService) *httprouter.Router {
	router := httprouter.New()
	NewBookingHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorDetail {
	t.Helper()
	var body apperrors.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return body.Detail
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestCreate(t *testing.T) {
	svc := &mockBookingService{capacity: 5}
	body := `{"class_id": 1, "client_name": "Priya Sharma", "client_email": "priya@example.com"}`

	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/book", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var view model.BookingView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.BookingReference == "" || view.BookingStatus != model.BookingStatusConfirmed {
		t.Errorf("unexpected view %+v", view)
	}
	if svc.gotReq.ClientEmail != "priya@example.com" || svc.gotReq.Notes != nil {
		t.Errorf("unexpected request %+v", svc.gotReq)
	}
}

func TestCreate_BadBodies(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"empty body", "", http.StatusUnprocessableEntity},
		{"malformed json", `{"class_id": `, http.StatusUnprocessableEntity},
		{"wrong type", `{"class_id": "one"}`, http.StatusUnprocessableEntity},
		{"two objects", `{"class_id": 1} {"class_id": 2}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBookingService{capacity: 5}
			rec := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/book", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if detail := decodeError(t, rec); detail.ErrorType != apperrors.CodeValidation {
				t.Errorf("expected validation_error, got %s", detail.ErrorType)
			}
			if svc.gotReq != nil {
				t.Error("service should not be called")
			}
		})
	}
}

func TestCreate_ConcurrentRequestsForLastSlot(t *testing.T) {
	svc := &mockBookingService{capacity: 1}
	router := newRouter(svc)

	const clients = 10
	var created, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, _ := json.Marshal(model.BookingRequest{ClassID: 1, ClientName: "Client", ClientEmail: fmt.Sprintf("c%d@example.com", i)})
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/book", bytes.NewReader(body)))
			switch rec.Code {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusConflict:
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if created.Load() != 1 || conflicts.Load() != clients-1 {
		t.Errorf("expected 1 created and %d conflicts, got %d and %d", clients-1, created.Load(), conflicts.Load())
	}
}

func TestGetByEmail(t *testing.T) {
	svc := &mockBookingService{}
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookings?client_email=me%40example.com", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.gotEmail != "me@example.com" {
		t.Errorf("expected email to reach service, got %q", svc.gotEmail)
	}
	if !strings.Contains(rec.Body.String(), `"bookings":[]`) {
		t.Errorf("expected empty bookings array, got %s", rec.Body.String())
	}
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
		wantID     int64
	}{
		{"cancels", "/bookings/7/cancel", nil, http.StatusOK, 7},
		{"non numeric id", "/bookings/abc/cancel", nil, http.StatusUnprocessableEntity, 0},
		{"zero id", "/bookings/0/cancel", nil, http.StatusUnprocessableEntity, 0},
		{"missing booking", "/bookings/9/cancel", apperrors.NotFoundWithID("Booking", 9), http.StatusNotFound, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBookingService{cancelErr: tt.err}
			rec := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if svc.gotID != tt.wantID {
				t.Errorf("expected service id %d, got %d", tt.wantID, svc.gotID)
			}
		})
	}
}
