package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"parkhive/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Колонки листа Requests: A=ID, B=Space ID, C=Space Name, D=User ID,
// E=Status, F=Start Time, G=End Time, H=Total Amount, I=Is Paid,
// J=Created At, K=Updated At.

type SheetsService struct {
	service       *sheets.Service
	ledgerSheetID string
	rowCache      map[int64]int
	cacheMu       sync.RWMutex
}

func NewSimpleSheetsService(credentialsFile, ledgerSheetID string) (*SheetsService, error) {
	ctx := context.Background()

	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	// Создаем JWT конфигурацию
	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	// Создаем клиент
	client := config.Client(ctx)

	// Создаем сервис
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	service := &SheetsService{
		service:       srv,
		ledgerSheetID: ledgerSheetID,
		rowCache:      make(map[int64]int),
	}

	// Warm up cache in background
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		service.WarmUpCache(ctx)
	}()

	// Periodic cache refresh every 1 hour
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			service.WarmUpCache(ctx)
			cancel()
		}
	}()

	return service, nil
}

// TestConnection проверяет подключение к таблице
func (s *SheetsService) TestConnection(ctx context.Context) error {
	// Пробуем прочитать первую ячейку листа журнала
	_, err := s.service.Spreadsheets.Values.Get(s.ledgerSheetID, "Requests!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// GetServiceAccountEmail возвращает email сервисного аккаунта
func (s *SheetsService) GetServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}

	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}

	return creds.ClientEmail, nil
}

// WarmUpCache populates the row index cache by reading the entire ID column.
func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.ledgerSheetID, "Requests!A:A").Context(ctx).Do()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[int64]int)

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		var id int64
		switch v := row[0].(type) {
		case float64:
			id = int64(v)
		case string:
			fmt.Sscanf(v, "%d", &id)
		}
		if id > 0 {
			s.rowCache[id] = i + 1
		}
	}
	return nil
}

// AppendRequest добавляет новую заявку в журнал
func (s *SheetsService) AppendRequest(ctx context.Context, request *models.ParkingRequest) error {
	rangeData := "Requests!A:A"
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{requestRowValues(request)},
	}

	_, err := s.service.Spreadsheets.Values.Append(s.ledgerSheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()

	return err
}

// UpsertRequest updates an existing request row or appends a new one if not found.
func (s *SheetsService) UpsertRequest(ctx context.Context, request *models.ParkingRequest) error {
	if request == nil {
		return fmt.Errorf("request is nil")
	}

	rowIdx, err := s.FindRequestRow(ctx, request.ID)
	if err != nil {
		if errors.Is(err, errRowNotFound) {
			return s.AppendRequest(ctx, request)
		}
		return err
	}

	rangeData := fmt.Sprintf("Requests!A%d:K%d", rowIdx, rowIdx)
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{requestRowValues(request)},
	}

	_, err = s.service.Spreadsheets.Values.Update(s.ledgerSheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// UpdateRequestStatus updates status (and Updated At) for a request row.
func (s *SheetsService) UpdateRequestStatus(ctx context.Context, requestID int64, status string) error {
	rowIdx, err := s.FindRequestRow(ctx, requestID)
	if err != nil {
		return err
	}

	now := time.Now().Format("2006-01-02 15:04:05")

	statusRange := fmt.Sprintf("Requests!E%d:E%d", rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.ledgerSheetID, statusRange, &sheets.ValueRange{
		Values: [][]interface{}{{status}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return err
	}

	updatedRange := fmt.Sprintf("Requests!K%d:K%d", rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.ledgerSheetID, updatedRange, &sheets.ValueRange{
		Values: [][]interface{}{{now}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// FindRequestRow locates row index (1-based) for request_id in column A with cache.
func (s *SheetsService) FindRequestRow(ctx context.Context, requestID int64) (int, error) {
	if requestID == 0 {
		return 0, fmt.Errorf("request id is required")
	}

	if row, ok := s.getCachedRow(requestID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.ledgerSheetID, "Requests!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		switch v := row[0].(type) {
		case float64:
			if int64(v) == requestID {
				rowIdx := i + 1 // Values are zero-based; sheet rows are 1-based
				s.setCachedRow(requestID, rowIdx)
				return rowIdx, nil
			}
		case string:
			// if ID stored as string
			if v == fmt.Sprintf("%d", requestID) {
				rowIdx := i + 1
				s.setCachedRow(requestID, rowIdx)
				return rowIdx, nil
			}
		}
	}

	return 0, errRowNotFound
}

var errRowNotFound = errors.New("request row not found")

func (s *SheetsService) getCachedRow(id int64) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id int64, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

// ClearCache clears the row index cache.
func (s *SheetsService) ClearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[int64]int)
}

func requestRowValues(request *models.ParkingRequest) []interface{} {
	startTime := ""
	if request.StartTime.Valid {
		startTime = request.StartTime.Time.Format("2006-01-02 15:04:05")
	}
	endTime := ""
	if request.EndTime.Valid {
		endTime = request.EndTime.Time.Format("2006-01-02 15:04:05")
	}
	var totalAmount interface{} = ""
	if request.TotalAmount.Valid {
		totalAmount = request.TotalAmount.Float64
	}

	return []interface{}{
		request.ID,
		request.SpaceID,
		request.SpaceName,
		request.UserID,
		request.Status,
		startTime,
		endTime,
		totalAmount,
		request.IsPaid,
		request.CreatedAt.Format("2006-01-02 15:04:05"),
		request.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// UpdateRequestsSheet полностью перезаписывает лист журнала заявок
func (s *SheetsService) UpdateRequestsSheet(ctx context.Context, requests []*models.ParkingRequest) error {
	var values [][]interface{}

	// Заголовки
	headers := []interface{}{"ID", "Space ID", "Space Name", "User ID", "Status", "Start Time", "End Time", "Total Amount", "Is Paid", "Created At", "Updated At"}
	values = append(values, headers)

	for _, request := range requests {
		values = append(values, requestRowValues(request))
	}

	// Полностью очищаем и перезаписываем лист
	rangeData := "Requests!A1:K" + fmt.Sprintf("%d", len(values))
	valueRange := &sheets.ValueRange{
		Values: values,
	}

	_, err := s.service.Spreadsheets.Values.Update(s.ledgerSheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()

	return err
}
