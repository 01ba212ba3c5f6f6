package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Chihaouimed/PV/internal/middleware"
	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "pvmanager-test-secret"

// SetupTestDB opens a private in-memory SQLite database with every table migrated.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// one connection, otherwise each pooled conn sees its own empty :memory: db
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(entity.AllModels()...))

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// Logger returns a no-op zap logger
func Logger() *zap.Logger {
	return zap.NewNop()
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group behind JWT auth
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken signs a token with the test secret
func GenerateTestToken(userID, name, email string) string {
	token, _ := middleware.GenerateToken(JWTSecret, "pvmanager-test", userID, name, email, time.Hour)
	return token
}

// DefaultTestToken token of the default operator
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test Operator", "operator@test.com")
}

// DoRequest executes a JSON request against the router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse decodes the JSON envelope
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedClient inserts a client
func SeedClient(t *testing.T, db *gorm.DB, id, name, email string) *entity.Client {
	t.Helper()
	c := &entity.Client{ID: id, Name: name, Email: email, Address: "12 Rue de Carthage, Tunis"}
	require.NoError(t, db.Create(c).Error)
	return c
}

// SeedInstallation inserts an installation owned by clientID
func SeedInstallation(t *testing.T, db *gorm.DB, id, code, clientID string) *entity.Installation {
	t.Helper()
	inst := &entity.Installation{
		ID:       id,
		Code:     code,
		Name:     "Centrale " + code,
		ClientID: &clientID,
		Address:  "Zone industrielle, Sfax",
		Type:     entity.InstallationTypeResidential,
		Active:   true,
		State:    entity.InstallationStateInProgress,
	}
	require.NoError(t, db.Create(inst).Error)
	return inst
}

// SeedEmployee inserts a technician
func SeedEmployee(t *testing.T, db *gorm.DB, id, name string) *entity.Employee {
	t.Helper()
	e := &entity.Employee{ID: id, Name: name, JobTitle: "Technicien PV", Active: true}
	require.NoError(t, db.Create(e).Error)
	return e
}

// SeedAlarm inserts an alarm code
func SeedAlarm(t *testing.T, db *gorm.DB, id, part, code, name string) *entity.AlarmCode {
	t.Helper()
	a := &entity.AlarmCode{ID: id, Part: part, Code: code, Name: name}
	require.NoError(t, db.Create(a).Error)
	return a
}
