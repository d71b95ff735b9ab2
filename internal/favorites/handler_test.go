package favorites

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/store"
)

func textValue(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}

func TestListRendersNullableColumns(t *testing.T) {
	user := testUUID(2)
	withCategory := testUUID(1)
	bareItem := testUUID(3)
	st := &stubQuerier{
		items: map[pgtype.UUID]store.MenuItem{
			withCategory: {
				ID:          withCategory,
				Name:        "Es Teh Manis",
				Category:    textValue("Minuman"),
				Description: textValue("Sweet iced tea"),
				Price:       8000,
				Available:   true,
			},
			bareItem: {ID: bareItem, Name: "Kerupuk", Price: 3000},
		},
		marks: map[favKey]bool{
			{user, withCategory}: true,
			{user, bareItem}:     true,
		},
	}
	h := &Handler{Svc: &Service{Q: st}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/favorites", nil)
	req = req.WithContext(common.WithUserID(req.Context(), store.UUIDString(user)))
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Items []struct {
			Name        string  `json:"name"`
			Category    string  `json:"category"`
			Description *string `json:"description"`
			Price       int64   `json:"price"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(body.Items))
	}
	byName := map[string]int{}
	for i, item := range body.Items {
		byName[item.Name] = i
	}
	tea := body.Items[byName["Es Teh Manis"]]
	if tea.Category != "Minuman" {
		t.Fatalf("category = %q, want Minuman", tea.Category)
	}
	if tea.Description == nil || *tea.Description != "Sweet iced tea" {
		t.Fatalf("description = %v", tea.Description)
	}
	krupuk := body.Items[byName["Kerupuk"]]
	if krupuk.Category != "" || krupuk.Description != nil {
		t.Fatalf("null columns should render empty, got %q %v", krupuk.Category, krupuk.Description)
	}
}

func TestListRequiresAuth(t *testing.T) {
	h := &Handler{Svc: &Service{Q: &stubQuerier{}}}
	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/favorites", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}
