package assistant

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/lifeline/donor-assistant/internal/platform/search"
)

func newTestHandler(ex *mockExplainer, f *mockFinder) (*Handler, *echo.Echo) {
	return NewHandler(newTestService(ex, f)), echo.New()
}

func TestHandler_Chat(t *testing.T) {
	h, e := newTestHandler(&mockExplainer{text: "answer"}, &mockFinder{})
	req := httptest.NewRequest(http.MethodPost, "/api/chat/", strings.NewReader(`{"question":"What is plasma?","language":"en"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Chat(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ans Answer
	json.Unmarshal(rec.Body.Bytes(), &ans)
	if ans.Answer != "answer" || len(ans.FollowUps) != 3 {
		t.Errorf("unexpected answer %+v", ans)
	}
}

func TestHandler_Chat_EmptyQuestion(t *testing.T) {
	h, e := newTestHandler(&mockExplainer{}, &mockFinder{})
	req := httptest.NewRequest(http.MethodPost, "/api/chat/", strings.NewReader(`{"question":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	httpErr, ok := h.Chat(c).(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatal("expected 400 for empty question")
	}
}

func TestHandler_GetResponse(t *testing.T) {
	h, e := newTestHandler(&mockExplainer{text: "generated"}, &mockFinder{})

	req := httptest.NewRequest(http.MethodGet, "/get-response/?msg=hello", nil)
	rec := httptest.NewRecorder()
	if err := h.GetResponse(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body getResponse
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Response != "generated" || body.Source != SourceAI {
		t.Errorf("unexpected response %+v", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/get-response/", nil)
	rec = httptest.NewRecorder()
	if err := h.GetResponse(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body = getResponse{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Response != "Please ask a valid question." {
		t.Errorf("unexpected empty-message response %q", body.Response)
	}
}

func TestHandler_Locations(t *testing.T) {
	f := &mockFinder{locs: &search.Locations{Banks: []search.Place{{Name: "A"}}, Camps: []search.Place{}}}
	h, e := newTestHandler(&mockExplainer{}, f)

	req := httptest.NewRequest(http.MethodGet, "/api/locations?city=Pune", nil)
	rec := httptest.NewRecorder()
	if err := h.Locations(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var centers Centers
	json.Unmarshal(rec.Body.Bytes(), &centers)
	if centers.City != "Pune" || len(centers.Banks) != 1 {
		t.Errorf("unexpected centers %+v", centers)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/locations", nil)
	httpErr, ok := h.Locations(e.NewContext(req, httptest.NewRecorder())).(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Error("expected 400 without city")
	}
}

func TestHandler_Models(t *testing.T) {
	h, e := newTestHandler(&mockExplainer{}, &mockFinder{})
	req := httptest.NewRequest(http.MethodGet, "/api/models/", nil)
	rec := httptest.NewRecorder()
	if err := h.Models(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "google/flan-t5-large") {
		t.Errorf("expected model name in body, got %s", rec.Body.String())
	}
}
