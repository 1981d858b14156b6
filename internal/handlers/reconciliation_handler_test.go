package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handler "match-reconciliation-backend/internal/handlers"
	"match-reconciliation-backend/internal/repository"
	"match-reconciliation-backend/internal/routes"
	"match-reconciliation-backend/internal/services/reconciliation"
	"match-reconciliation-backend/internal/sheet"
	"match-reconciliation-backend/internal/testutil"
)

const mergedCSV = `bank_row,bank_date,bank_code,bank_name,bank_amount,sale_row,invoice,sale_code,sale_date,sale_name,sale_amount,match_type,confidence,match_code
1,2024-01-10,OP-1,Juan Perez,1000.00,1,F-1,V-1,2024-01-11,Juan Perez,1000.00,any,Medium (100%),
2,2024-01-10,OP-2,Ana Lopez,250.00,2,F-2,V-2,2024-01-10,Ana Lopez,250.00,x,medium (60%),
3,2024-01-10,OP-3,Luis Diaz,75.00,,,,,,,,,
,,,,,3,F-3,V-3,2024-01-12,Luis Diaz,75.00,,,
4,not-a-date,,,1.00,,,,,,,,,
`

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repos := repository.New(testutil.NewDB(t))
	svc := reconciliation.NewReconciliationService(repos, reconciliation.Options{})
	r := gin.New()
	routes.RegisterRoutes(r, handler.NewReconciliationHandler(svc, 1<<20))
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Operator", "tester")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func upload(t *testing.T, r http.Handler, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return do(t, r, http.MethodPost, "/api/imports", body.Bytes(), mw.FormDataContentType())
}

func items(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list, ok := decode(t, w)["items"].([]interface{})
	require.True(t, ok)
	return list
}

func TestHealth(t *testing.T) {
	w := do(t, newRouter(t), http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestUploadAndReview(t *testing.T) {
	r := newRouter(t)

	w := upload(t, r, "merged.csv", mergedCSV)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	batch := resp["batch"].(map[string]interface{})
	assert.EqualValues(t, 1, batch["confirmed_count"])
	assert.EqualValues(t, 1, batch["pending_count"])
	assert.Len(t, resp["parse_errors"], 1)

	w = do(t, r, http.MethodGet, "/api/imports/"+batch["id"].(string), nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.EqualValues(t, 3, stats["total_bank"])
	assert.EqualValues(t, 1, stats["unmatched_bank"])
	assert.EqualValues(t, 1, stats["unmatched_sales"])

	pending := items(t, do(t, r, http.MethodGet, "/api/matches?state=pending", nil, ""))
	require.Len(t, pending, 1)
	matchID := pending[0].(map[string]interface{})["id"].(string)

	w = do(t, r, http.MethodPost, "/api/matches/"+matchID+"/approve", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, r, http.MethodPost, "/api/matches/"+matchID+"/approve", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, r, http.MethodPost, "/api/matches/"+matchID+"/reject", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/api/matches/"+matchID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	audit := decode(t, w)["audit"].([]interface{})
	require.Len(t, audit, 2)
	assert.Equal(t, "tester", audit[1].(map[string]interface{})["performed_by"])

	confirmed := items(t, do(t, r, http.MethodGet, "/api/matches?state=CONFIRMED", nil, ""))
	assert.Len(t, confirmed, 2)

	w = do(t, r, http.MethodGet, "/api/matches?state=bogus", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCandidatesAndManualMatch(t *testing.T) {
	r := newRouter(t)
	require.Equal(t, http.StatusOK, upload(t, r, "merged.csv", mergedCSV).Code)

	banks := items(t, do(t, r, http.MethodGet, "/api/bank/unmatched", nil, ""))
	require.Len(t, banks, 1)
	bankID := banks[0].(map[string]interface{})["id"].(string)

	found := items(t, do(t, r, http.MethodGet, "/api/bank/"+bankID+"/candidates", nil, ""))
	require.Len(t, found, 1)
	candidate := found[0].(map[string]interface{})
	assert.Equal(t, "sales", candidate["ledger"])
	assert.EqualValues(t, 2, candidate["day_diff"])
	saleID := candidate["record"].(map[string]interface{})["id"].(string)

	assert.Empty(t, items(t, do(t, r, http.MethodGet, "/api/bank/"+bankID+"/candidates?days=1", nil, "")))
	assert.Len(t, items(t, do(t, r, http.MethodGet, "/api/bank/"+bankID+"/candidates?days=&amount=any", nil, "")), 1)
	assert.Len(t, items(t, do(t, r, http.MethodGet, "/api/bank/"+bankID+"/candidates?days=0&amount=any", nil, "")), 1)
	assert.Len(t, items(t, do(t, r, http.MethodGet, "/api/sales/"+saleID+"/candidates?name=true", nil, "")), 1)

	body, _ := json.Marshal(map[string]string{"bank_id": bankID, "sale_id": saleID})
	w := do(t, r, http.MethodPost, "/api/matches/manual", body, "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/matches/manual", body, "application/json")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/api/matches/manual", []byte(`{"bank_id":"nope","sale_id":"x"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/bank/not-a-uuid/candidates", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportAndReset(t *testing.T) {
	r := newRouter(t)
	require.Equal(t, http.StatusOK, upload(t, r, "merged.csv", mergedCSV).Code)

	w := do(t, r, http.MethodPost, "/api/matches/approve-all", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["approved"])

	w = do(t, r, http.MethodGet, "/api/export?format=csv", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	rows, problems, err := sheet.Read(bytes.NewReader(w.Body.Bytes()), sheet.FormatCSV)
	require.NoError(t, err)
	assert.Empty(t, problems)
	require.Len(t, rows, 4)
	assert.NotEmpty(t, rows[0].MatchCode)
	assert.NotEmpty(t, rows[1].MatchCode)

	w = do(t, r, http.MethodGet, "/api/export", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	xrows, _, err := sheet.Read(bytes.NewReader(w.Body.Bytes()), sheet.FormatXLSX)
	require.NoError(t, err)
	assert.Len(t, xrows, 4)

	w = do(t, r, http.MethodGet, "/api/export?format=pdf", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/reset", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodGet, "/api/stats?from=2024-01-01&to=2024-01-31", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["total_bank"])

	w = do(t, r, http.MethodGet, "/api/stats?from=yesterday&to=2024-01-31", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadRejectsUnknownFiles(t *testing.T) {
	r := newRouter(t)
	assert.Equal(t, http.StatusBadRequest, upload(t, r, "merged.pdf", mergedCSV).Code)
	assert.Equal(t, http.StatusBadRequest, upload(t, r, "merged.csv", "a,b\n1,2\n").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/imports", nil, "").Code)
}
