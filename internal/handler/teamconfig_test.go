package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestConfigsWithoutDatabase(t *testing.T) {
	h := NewTeamConfigHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Configs(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("状态码 = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestImportCSV(t *testing.T) {
	h := NewTeamConfigHandler(nil)

	rec := postJSON(t, h.ImportCSV, ImportCSVRequest{
		Text: "Alice, Manager, 40\nbroken\nBob, Server, 24",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ImportCSVResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Skipped != 1 {
		t.Errorf("跳过行数 = %d, want 1", resp.Skipped)
	}
	if len(resp.Staff) != 2 || resp.Staff[0].Name != "Alice" || resp.Staff[1].MaxHours != 24 {
		t.Errorf("解析结果错误: %+v", resp.Staff)
	}
}

func TestImportCSVRejectsWrongMethod(t *testing.T) {
	h := NewTeamConfigHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ImportCSV(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("状态码 = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
