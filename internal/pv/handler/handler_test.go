package handler

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Chihaouimed/PV/internal/pv/repository"
	"github.com/Chihaouimed/PV/internal/pv/service"
	"github.com/Chihaouimed/PV/internal/pv/testutil"
	"github.com/Chihaouimed/PV/internal/shared/sse"
	"github.com/Chihaouimed/PV/internal/shared/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRouter(t *testing.T, opts service.Options) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	opts.Logger = testutil.Logger()
	svcs := service.NewServices(repository.NewRepositories(db), opts)

	r := testutil.SetupRouter()
	RegisterRoutes(testutil.AuthGroup(r, "/api/v1"), NewHandlers(svcs, sse.NewHub(nil)))
	return r, db
}

func TestRoutes_RequireToken(t *testing.T) {
	r, _ := setupRouter(t, service.Options{})
	w := testutil.DoRequest(r, http.MethodGet, "/api/v1/clients", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClientHandler_CRUD(t *testing.T) {
	r, _ := setupRouter(t, service.Options{})
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(r, http.MethodPost, "/api/v1/clients", map[string]interface{}{
		"name": "Société Solaire", "email": "contact@solaire.tn",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := testutil.ParseResponse(w)["data"].(map[string]interface{})
	id := created["id"].(string)

	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/clients/"+id, nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Société Solaire", testutil.ParseResponse(w)["data"].(map[string]interface{})["name"])

	w = testutil.DoRequest(r, http.MethodPost, "/api/v1/clients", map[string]interface{}{"email": "x@y.tn"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, 40000, testutil.ParseResponse(w)["code"])

	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/clients/missing", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.EqualValues(t, 40400, testutil.ParseResponse(w)["code"])
}

func TestInverterHandler_DuplicateReference(t *testing.T) {
	r, _ := setupRouter(t, service.Options{})
	token := testutil.DefaultTestToken()

	body := map[string]interface{}{"reference": "SUN2000-10KTL", "power_kva": "10"}
	w := testutil.DoRequest(r, http.MethodPost, "/api/v1/inverters", body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = testutil.DoRequest(r, http.MethodPost, "/api/v1/inverters", body, token)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.EqualValues(t, 40900, testutil.ParseResponse(w)["code"])
}

func TestClientHandler_ListPagination(t *testing.T) {
	r, db := setupRouter(t, service.Options{})
	token := testutil.DefaultTestToken()
	for i := 1; i <= 5; i++ {
		testutil.SeedClient(t, db, fmt.Sprintf("client-%d", i), fmt.Sprintf("Client %d", i), "")
	}

	w := testutil.DoRequest(r, http.MethodGet, "/api/v1/clients?page=2&page_size=2", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	assert.Len(t, data["items"], 2)
	pagination := data["pagination"].(map[string]interface{})
	assert.EqualValues(t, 5, pagination["total"])
	assert.EqualValues(t, 3, pagination["total_pages"])
	assert.EqualValues(t, 2, pagination["page"])

	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/clients?keyword=Client%203", nil, token)
	data = testutil.ParseResponse(w)["data"].(map[string]interface{})
	assert.Len(t, data["items"], 1)
}

func TestComplaintHandler_ActionPlan(t *testing.T) {
	r, db := setupRouter(t, service.Options{})
	token := testutil.DefaultTestToken()
	client := testutil.SeedClient(t, db, "client-1", "Client Sfax", "")
	inst := testutil.SeedInstallation(t, db, "inst-1", "INST-2024-0001", client.ID)

	w := testutil.DoRequest(r, http.MethodPost, "/api/v1/complaints", map[string]interface{}{
		"installation_id": inst.ID,
		"description":     "Production nulle depuis ce matin",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	complaint := testutil.ParseResponse(w)["data"].(map[string]interface{})
	assert.Equal(t, client.ID, complaint["client_id"])

	w = testutil.DoRequest(r, http.MethodGet, fmt.Sprintf("/api/v1/complaints/%s/action-plan", complaint["id"]), nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Aucun code d'alarme n'est associé à cette réclamation.", testutil.ParseResponse(w)["message"])

	w = testutil.DoRequest(r, http.MethodGet, fmt.Sprintf("/api/v1/complaints/%s", complaint["id"]), nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	assert.EqualValues(t, 0, data["intervention_count"])
}

func TestComplaintHandler_CreateInterventionAndClose(t *testing.T) {
	r, db := setupRouter(t, service.Options{})
	token := testutil.DefaultTestToken()
	client := testutil.SeedClient(t, db, "client-1", "Client Sfax", "")
	inst := testutil.SeedInstallation(t, db, "inst-1", "INST-2024-0001", client.ID)

	w := testutil.DoRequest(r, http.MethodPost, "/api/v1/complaints", map[string]interface{}{
		"installation_id": inst.ID,
		"description":     "Onduleur en défaut",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(r, http.MethodPost, "/api/v1/complaints/"+id+"/interventions", map[string]interface{}{"type": "bogus"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.DoRequest(r, http.MethodPost, "/api/v1/complaints/"+id+"/interventions", map[string]interface{}{"type": "reparation"}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	it := testutil.ParseResponse(w)["data"].(map[string]interface{})
	assert.Equal(t, inst.ID, it["installation_id"])

	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/complaints/"+id+"/interventions", nil, token)
	items := testutil.ParseResponse(w)["data"].(map[string]interface{})["items"].([]interface{})
	assert.Len(t, items, 1)

	w = testutil.DoRequest(r, http.MethodPost, "/api/v1/complaints/"+id+"/close", nil, token)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = testutil.DoRequest(r, http.MethodPost, "/api/v1/complaints/"+id+"/close", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttachmentHandler_Disabled(t *testing.T) {
	r, _ := setupRouter(t, service.Options{})
	w := uploadFile(t, r, "/api/v1/interventions/int-1/attachments", "rapport.pdf", "%PDF-1.4")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.EqualValues(t, 50300, testutil.ParseResponse(w)["code"])
}

func TestAttachmentHandler_UploadDownload(t *testing.T) {
	var store storage.Store = storage.NewLocalStore(t.TempDir())
	r, _ := setupRouter(t, service.Options{Store: store})
	token := testutil.DefaultTestToken()
	base := "/api/v1/interventions/int-1/attachments"

	w := uploadFile(t, r, base, "photo onduleur.jpg", "jpeg-bytes")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	att := testutil.ParseResponse(w)["data"].(map[string]interface{})
	assert.Equal(t, "photo onduleur.jpg", att["file_name"])
	attID := att["id"].(string)

	w = testutil.DoRequest(r, http.MethodGet, base, nil, token)
	items := testutil.ParseResponse(w)["data"].(map[string]interface{})["items"].([]interface{})
	assert.Len(t, items, 1)

	w = testutil.DoRequest(r, http.MethodGet, base+"/"+attID, nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg-bytes", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "photo onduleur.jpg")

	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/interventions/int-2/attachments/"+attID, nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.DoRequest(r, http.MethodDelete, base+"/"+attID, nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
	w = testutil.DoRequest(r, http.MethodGet, base+"/"+attID, nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportHandler(t *testing.T) {
	r, _ := setupRouter(t, service.Options{})
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(r, http.MethodGet, "/api/v1/reports/dashboard", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	assert.EqualValues(t, 0, data["total_complaints"])

	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/reports/dashboard?from=2024-02-01&to=2024-01-01", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/reports/dashboard?from=yesterday", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/reports/complaints/export", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "pv_complaints_")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/reports/unknown/export", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluationHandler_CancelAlias(t *testing.T) {
	r, db := setupRouter(t, service.Options{})
	token := testutil.DefaultTestToken()
	client := testutil.SeedClient(t, db, "client-1", "Client Sousse", "")
	inst := testutil.SeedInstallation(t, db, "inst-1", "INST-2024-0001", client.ID)

	w := testutil.DoRequest(r, http.MethodPost, "/api/v1/evaluations", map[string]interface{}{
		"client_id":         client.ID,
		"installation_id":   inst.ID,
		"technician_rating": 4,
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(r, http.MethodPost, "/api/v1/evaluations/"+id+"/state/cancel", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "canceled", testutil.ParseResponse(w)["data"].(map[string]interface{})["state"])
}

func uploadFile(t *testing.T, r *gin.Engine, path, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testutil.DefaultTestToken())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
