package google

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parkhive/internal/models"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func setupMockServer(ctx context.Context) (*http.ServeMux, *httptest.Server, *SheetsService) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	srv, _ := sheets.NewService(ctx, option.WithEndpoint(server.URL), option.WithoutAuthentication())
	s := &SheetsService{
		service:       srv,
		ledgerSheetID: "ledger_tid",
		rowCache:      make(map[int64]int),
	}
	return mux, server, s
}

func testRequest(id int64) *models.ParkingRequest {
	now := time.Now()
	return &models.ParkingRequest{
		ID:        id,
		SpaceID:   1,
		SpaceName: "Acacia Avenue",
		UserID:    2,
		Status:    models.StatusPending,
		StartTime: sql.NullTime{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSheetsService_TestConnection(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockServer(ctx)
	defer server.Close()
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Requests!A1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"test"}}})
	})
	err := s.TestConnection(ctx)
	if err != nil {
		t.Errorf("TestConnection failed: %v", err)
	}
}

func TestSheetsService_WarmUpCache(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockServer(ctx)
	defer server.Close()
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Requests!A:A", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{
			Values: [][]interface{}{{"ID"}, {"123"}, {"456"}},
		})
	})
	err := s.WarmUpCache(ctx)
	if err != nil {
		t.Errorf("WarmUpCache failed: %v", err)
	}
	if row, ok := s.getCachedRow(123); !ok || row != 2 {
		t.Errorf("Expected row 2 for ID 123, got %d", row)
	}
	if row, ok := s.getCachedRow(456); !ok || row != 3 {
		t.Errorf("Expected row 3 for ID 456, got %d", row)
	}
}

func TestSheetsService_AppendRequest(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockServer(ctx)
	defer server.Close()
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Requests!A:A:append", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.AppendValuesResponse{
			Updates: &sheets.UpdateValuesResponse{
				UpdatedRange: "Requests!A10:K10",
			},
		})
	})
	err := s.AppendRequest(ctx, testRequest(789))
	if err != nil {
		t.Errorf("AppendRequest failed: %v", err)
	}
}

func TestSheetsService_UpsertRequest_Update(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockServer(ctx)
	defer server.Close()
	s.setCachedRow(123, 2)
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Requests!A2:K2", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})
	err := s.UpsertRequest(ctx, testRequest(123))
	if err != nil {
		t.Errorf("UpsertRequest failed: %v", err)
	}
}

func TestSheetsService_UpsertRequest_AppendWhenMissing(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockServer(ctx)
	defer server.Close()
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Requests!A:A", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{
			Values: [][]interface{}{{"ID"}, {"5"}},
		})
	})
	appended := false
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Requests!A:A:append", func(w http.ResponseWriter, r *http.Request) {
		appended = true
		_ = json.NewEncoder(w).Encode(sheets.AppendValuesResponse{})
	})
	err := s.UpsertRequest(ctx, testRequest(777))
	if err != nil {
		t.Errorf("UpsertRequest failed: %v", err)
	}
	if !appended {
		t.Error("Expected missing request to be appended")
	}
}

func TestSheetsService_UpdateRequestStatus(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockServer(ctx)
	defer server.Close()
	s.setCachedRow(123, 2)
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Requests!E2:E2", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Requests!K2:K2", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})
	err := s.UpdateRequestStatus(ctx, 123, models.StatusActive)
	if err != nil {
		t.Errorf("UpdateRequestStatus failed: %v", err)
	}
}

func TestSheetsService_UpdateRequestsSheet(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockServer(ctx)
	defer server.Close()
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Requests!A1:K2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})
	err := s.UpdateRequestsSheet(ctx, []*models.ParkingRequest{testRequest(1)})
	if err != nil {
		t.Errorf("UpdateRequestsSheet failed: %v", err)
	}
}

func TestSheetsService_FindRequestRow_FullScan(t *testing.T) {
	ctx := context.Background()
	mux, server, s := setupMockServer(ctx)
	defer server.Close()
	mux.HandleFunc("/v4/spreadsheets/ledger_tid/values/Requests!A:A", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{
			Values: [][]interface{}{{"ID"}, {"999"}},
		})
	})
	row, err := s.FindRequestRow(ctx, 999)
	if err != nil {
		t.Errorf("FindRequestRow failed: %v", err)
	}
	if row != 2 {
		t.Errorf("Expected row 2, got %d", row)
	}
	// Второй вызов берет строку из кэша
	if cached, ok := s.getCachedRow(999); !ok || cached != 2 {
		t.Errorf("Expected row cached after scan, got %d", cached)
	}
}
