package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "fitstudio/pkg/errors"
	"fitstudio/pkg/logger"
	"fitstudio/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockClassService struct {
	gotZone string
	gotID   int64
	err     error
}

func (m *mockClassService) List(ctx context.Context, zone string) ([]*model.ClassView, error) {
	m.gotZone = zone
	if m.err != nil {
		return nil, m.err
	}
	return []*model.ClassView{{ID: 1, Name: "Morning Yoga", MaxSlots: 15, AvailableSlots: 15}}, nil
}

func (m *mockClassService) GetByID(ctx context.Context, id int64, zone string) (*model.ClassView, error) {
	m.gotID = id
	m.gotZone = zone
	if m.err != nil {
		return nil, m.err
	}
	return &model.ClassView{ID: id, Name: "Morning Yoga"}, nil
}

func (m *mockClassService) Snapshot(ctx context.Context, class *model.FitnessClass) (*model.ClassView, error) {
	return nil, nil
}

func newRouter(svc *mockClassService) *httprouter.Router {
	router := httprouter.New()
	NewClassHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func TestList_PassesTimezone(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"", ""},
		{"?timezone=Asia/Tokyo", "Asia/Tokyo"},
		{"?timezone=%2B05:30", "+05:30"},
		{"?timezone=+05:30", "+05:30"},
		{"?timezone=UTC+5", "UTC+5"},
		{"?timezone=-03:00", "-03:00"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			svc := &mockClassService{}
			rec := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/classes"+tt.query, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if svc.gotZone != tt.want {
				t.Errorf("expected zone %q, got %q", tt.want, svc.gotZone)
			}
			var views []model.ClassView
			if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil || len(views) != 1 {
				t.Errorf("unexpected body %s", rec.Body.String())
			}
		})
	}
}

func TestList_UnknownZoneEnvelope(t *testing.T) {
	svc := &mockClassService{err: apperrors.InvalidInput("timezone", "Unknown timezone: Mars/Olympus")}
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/classes?timezone=Mars/Olympus", nil))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var body apperrors.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Detail.ErrorType != apperrors.CodeValidation {
		t.Errorf("expected validation_error, got %s", body.Detail.ErrorType)
	}
}

func TestGetByID(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{"found", "/classes/3", nil, http.StatusOK},
		{"not a number", "/classes/abc", nil, http.StatusUnprocessableEntity},
		{"zero", "/classes/0", nil, http.StatusUnprocessableEntity},
		{"missing", "/classes/9", apperrors.NotFoundWithID("Fitness class", 9), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockClassService{err: tt.err}
			rec := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestClassDateTimeCarriesOffset(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+30*60)
	view := model.ClassView{ClassDateTime: time.Date(2024, 1, 15, 8, 0, 0, 0, ist)}

	data, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["class_datetime"] != "2024-01-15T08:00:00+05:30" {
		t.Errorf("unexpected class_datetime %v", raw["class_datetime"])
	}
}
