package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aslanbek/grainflow/internal/auth"
	"github.com/aslanbek/grainflow/internal/excel"
	"github.com/aslanbek/grainflow/internal/http/middleware"
	"github.com/aslanbek/grainflow/internal/model"
	"github.com/aslanbek/grainflow/internal/pdf"
	"github.com/aslanbek/grainflow/internal/repository"
	"github.com/aslanbek/grainflow/internal/service"
	"github.com/aslanbek/grainflow/internal/storage"
)

const testSecret = "test-secret"

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.Contract{}, &model.Application{}, &model.Wagon{}, &model.Document{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store, err := storage.NewStore(t.TempDir(), "/api")
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	log := zerolog.Nop()
	contractRepo := repository.NewContractRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	wagonRepo := repository.NewWagonRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	contractLocks := service.NewContractLocks()
	contracts := service.NewContractService(contractRepo, applicationRepo, contractLocks)
	applications := service.NewApplicationService(applicationRepo, contractRepo, documentRepo, store, contractLocks, log)
	documents := service.NewDocumentService(documentRepo, contractRepo, applicationRepo, wagonRepo, store, log)
	wagons := service.NewWagonService(wagonRepo, applicationRepo, contractRepo, documentRepo, documents, store, log)

	pdfGen, err := pdf.NewGenerator()
	if err != nil {
		t.Fatalf("pdf generator: %v", err)
	}
	reports := service.NewReportService(wagons, excel.NewGenerator(), pdfGen)

	handler := NewHandler(contracts, applications, wagons, documents, reports, log)
	parser := auth.NewParser(testSecret)
	return NewRouter(handler, middleware.Auth(parser), "test")
}

func signToken(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// wagonIDFrom достаёт id вагона из ответа POST /wagons.
func wagonIDFrom(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	wagon, _ := decodeBody(t, rec)["wagon"].(map[string]any)
	id, _ := wagon["id"].(string)
	if id == "" {
		t.Fatalf("wagon id missing in %s", rec.Body.String())
	}
	return id
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	router := setupRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/contracts", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/contracts", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: code = %d, want 401", rec.Code)
	}
}

func TestContractLifecycleOverHTTP(t *testing.T) {
	router := setupRouter(t)
	admin := signToken(t, model.RoleAdmin)

	rec := doJSON(t, router, http.MethodPost, "/contracts", admin, map[string]any{
		"number":       "КЗ-2026-001",
		"total_volume": "1000",
		"currency":     "USD",
		"crop":         "пшеница",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	contractID, _ := decodeBody(t, rec)["id"].(string)
	if contractID == "" {
		t.Fatal("contract id missing")
	}

	rec = doJSON(t, router, http.MethodGet, "/contracts/"+contractID, admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: %d %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["available_volume"] != "1000" {
		t.Fatalf("available_volume = %v, want \"1000\"", body["available_volume"])
	}

	// Невалидное тело — 400, не 500.
	rec = doJSON(t, router, http.MethodPost, "/contracts", admin, map[string]any{"currency": "USD"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing number: %d", rec.Code)
	}
}

func TestApplicationOverAllocationReturns422(t *testing.T) {
	router := setupRouter(t)
	admin := signToken(t, model.RoleAdmin)

	rec := doJSON(t, router, http.MethodPost, "/contracts", admin, map[string]any{
		"number":       "КЗ-2026-002",
		"total_volume": "500",
		"currency":     "USD",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create contract: %d %s", rec.Code, rec.Body.String())
	}
	contractID := decodeBody(t, rec)["id"].(string)

	rec = doJSON(t, router, http.MethodPost, "/applications", admin, map[string]any{
		"contract_id":   contractID,
		"name":          "Заявка 1",
		"volume":        "300",
		"price_per_ton": "250",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create application: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/applications", admin, map[string]any{
		"contract_id":   contractID,
		"name":          "Заявка 2",
		"volume":        "300",
		"price_per_ton": "250",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("over-allocation: %d %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["max_allowed"] != "200" {
		t.Fatalf("max_allowed = %v, want \"200\"", body["max_allowed"])
	}
}

func TestContractShrinkBelowAllocatedReturns422(t *testing.T) {
	router := setupRouter(t)
	admin := signToken(t, model.RoleAdmin)

	rec := doJSON(t, router, http.MethodPost, "/contracts", admin, map[string]any{
		"number":       "КЗ-2026-004",
		"total_volume": "1000",
		"currency":     "USD",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create contract: %d %s", rec.Code, rec.Body.String())
	}
	contractID := decodeBody(t, rec)["id"].(string)

	rec = doJSON(t, router, http.MethodPost, "/applications", admin, map[string]any{
		"contract_id":   contractID,
		"volume":        "800",
		"price_per_ton": "250",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create application: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPut, "/contracts/"+contractID, admin, map[string]any{
		"number":       "КЗ-2026-004",
		"total_volume": "500",
		"currency":     "USD",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("shrink below allocated: %d %s", rec.Code, rec.Body.String())
	}
	if allocated := decodeBody(t, rec)["allocated"]; allocated != "800" {
		t.Fatalf("allocated = %v, want \"800\"", allocated)
	}
}

func TestApplicationMutationForbiddenForOperator(t *testing.T) {
	router := setupRouter(t)
	admin := signToken(t, model.RoleAdmin)
	operator := signToken(t, model.RoleOperator)

	rec := doJSON(t, router, http.MethodPost, "/contracts", admin, map[string]any{
		"number":       "КЗ-2026-003",
		"total_volume": "100",
		"currency":     "USD",
	})
	contractID := decodeBody(t, rec)["id"].(string)

	rec = doJSON(t, router, http.MethodPost, "/applications", operator, map[string]any{
		"contract_id":   contractID,
		"volume":        "10",
		"price_per_ton": "1",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("operator create: %d, want 403", rec.Code)
	}
}

func TestWagonStatusEndpoint(t *testing.T) {
	router := setupRouter(t)
	admin := signToken(t, model.RoleAdmin)

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	_ = writer.WriteField("number", "62345678")
	_ = writer.WriteField("capacity", "63800")
	_ = writer.WriteField("owner", "КТЖ")
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/wagons", &form)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+admin)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create wagon: %d %s", rec.Code, rec.Body.String())
	}
	wagonID := wagonIDFrom(t, rec)

	statusRec := doJSON(t, router, http.MethodPatch, "/wagons/"+wagonID+"/status", admin, map[string]any{
		"status": "in_transit",
	})
	if statusRec.Code != http.StatusNoContent {
		t.Fatalf("status patch: %d %s", statusRec.Code, statusRec.Body.String())
	}

	getRec := doJSON(t, router, http.MethodGet, "/wagons/"+wagonID, admin, nil)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get wagon: %d", getRec.Code)
	}
	if status := decodeBody(t, getRec)["status"]; status != "in_transit" {
		t.Fatalf("status = %v", status)
	}

	badRec := doJSON(t, router, http.MethodPatch, "/wagons/"+wagonID+"/status", admin, map[string]any{
		"status": "derailed",
	})
	if badRec.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: %d, want 400", badRec.Code)
	}
}

func TestDocumentUploadOverHTTP(t *testing.T) {
	router := setupRouter(t)
	admin := signToken(t, model.RoleAdmin)

	var wagonForm bytes.Buffer
	writer := multipart.NewWriter(&wagonForm)
	_ = writer.WriteField("number", "62456789")
	_ = writer.WriteField("capacity", "63800")
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/wagons", &wagonForm)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+admin)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create wagon: %d %s", rec.Code, rec.Body.String())
	}
	wagonID := wagonIDFrom(t, rec)

	var uploadForm bytes.Buffer
	upload := multipart.NewWriter(&uploadForm)
	_ = upload.WriteField("files_info", `[{"name":"смгс.pdf","number":"СМГС-7","date":"2026-04-01"}]`)
	part, err := upload.CreateFormFile("files", "смгс.pdf")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write([]byte("pdf bytes")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	_ = upload.Close()

	uploadReq := httptest.NewRequest(http.MethodPost, "/owners/wagon/"+wagonID+"/documents/upload", &uploadForm)
	uploadReq.Header.Set("Content-Type", upload.FormDataContentType())
	uploadReq.Header.Set("Authorization", "Bearer "+admin)
	uploadRec := httptest.NewRecorder()
	router.ServeHTTP(uploadRec, uploadReq)
	if uploadRec.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", uploadRec.Code, uploadRec.Body.String())
	}

	var descriptors []map[string]any
	if err := json.Unmarshal(uploadRec.Body.Bytes(), &descriptors); err != nil {
		t.Fatalf("decode descriptors: %v", err)
	}
	if len(descriptors) != 1 || descriptors[0]["location"] == "" {
		t.Fatalf("descriptors = %v", descriptors)
	}

	// Пакет полон — вагон отгружен.
	getRec := doJSON(t, router, http.MethodGet, "/wagons/"+wagonID, admin, nil)
	if status := decodeBody(t, getRec)["status"]; status != "shipped" {
		t.Fatalf("status = %v, want shipped", status)
	}

	// Удаление по номеру.
	delRec := doJSON(t, router, http.MethodDelete, "/owners/wagon/"+wagonID+"/documents/СМГС-7", admin, nil)
	if delRec.Code != http.StatusNoContent {
		t.Fatalf("delete document: %d %s", delRec.Code, delRec.Body.String())
	}
	delRec = doJSON(t, router, http.MethodDelete, "/owners/wagon/"+wagonID+"/documents/СМГС-7", admin, nil)
	if delRec.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d, want 404", delRec.Code)
	}
}

func TestUnknownOwnerTypeRejected(t *testing.T) {
	router := setupRouter(t)
	admin := signToken(t, model.RoleAdmin)

	rec := doJSON(t, router, http.MethodGet, "/owners/locomotive/"+uuid.NewString()+"/documents", admin, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rec.Code)
	}
}

func TestHealthEndpointIsPublic(t *testing.T) {
	router := setupRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
}
