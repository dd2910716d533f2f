package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"paygrid-system/internal/auth"
	"paygrid-system/internal/database/models"
	"paygrid-system/internal/employee"
	"paygrid-system/internal/server/middleware"
	"paygrid-system/internal/utils"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Employee{}))
	require.NoError(t, db.AutoMigrate(&models.User{}))

	store := employee.NewStore(db, nil)
	authService := auth.NewService(db, testSecret, time.Hour)

	authHandler := NewAuthHTTPHandler(authService)
	employeeHandler := NewEmployeeHTTPHandler(store)

	r := gin.New()

	public := r.Group("/api/v1")
	{
		authGroup := public.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/register", authHandler.Register)
		}

		employees := public.Group("/employees")
		{
			employees.POST("", employeeHandler.SubmitEmployee)
			employees.GET("", employeeHandler.ListEmployees)
			employees.GET("/:id", employeeHandler.GetEmployee)
			employees.PUT("/:id", employeeHandler.UpdateEmployee)
			employees.DELETE("/:id", employeeHandler.DeleteEmployee)
		}
	}

	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuth([]byte(testSecret)))
	admin.Use(middleware.AdminOnly(false))
	{
		admin.GET("/employees", employeeHandler.ListEmployeesAdmin)
		admin.PUT("/employees/:id/salary", employeeHandler.UpdateEmployeeSalary)
	}

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func adminToken(t *testing.T) string {
	t.Helper()

	token, _, err := utils.GenerateToken([]byte(testSecret), 1, "root", "admin", time.Hour)
	require.NoError(t, err)
	return token
}

func submitBody(name, email, role string, salary float64) map[string]interface{} {
	return map[string]interface{}{
		"name":                     name,
		"email":                    email,
		"role":                     role,
		"salary_in_local_currency": salary,
	}
}

func TestSubmitEmployeeUpsertFlow(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/employees",
		submitBody("John Doe", "john@example.com", "developer", 50000), "")
	require.Equal(t, http.StatusCreated, w.Code)

	created := decodeBody(t, w)["data"].(map[string]interface{})
	id := created["id"].(float64)
	assert.Equal(t, "John Doe", created["name"])
	assert.Nil(t, created["displayed_salary"])

	w = doJSON(t, r, http.MethodPost, "/api/v1/employees",
		submitBody("John Smith", "john@example.com", "senior developer", 75000), "")
	require.Equal(t, http.StatusOK, w.Code)

	updated := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, id, updated["id"], "resubmission must update in place, not create")
	assert.Equal(t, "John Smith", updated["name"])
	assert.Equal(t, "senior developer", updated["role"])
}

func TestSubmitEmployeeValidation(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/employees", map[string]interface{}{
		"email": "bad-email", "role": "developer", "salary_in_local_currency": 1000,
	}, "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body := decodeBody(t, w)
	errs := body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "email")

	w = doJSON(t, r, http.MethodPost, "/api/v1/employees",
		submitBody("A", "a@example.com", "developer", -5), "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGetEmployeeNotFound(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/employees/4242", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/employees/not-a-number", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteEmployee(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/employees",
		submitBody("Jane Doe", "jane@example.com", "designer", 60000), "")
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBody(t, w)["data"].(map[string]interface{})["id"].(float64)

	path := fmt.Sprintf("/api/v1/employees/%.0f", id)
	w = doJSON(t, r, http.MethodDelete, path, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodDelete, path, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminListDeniedForAnonymous(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/admin/employees", nil, "")

	require.Equal(t, http.StatusForbidden, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, middleware.AdminDeniedMessage, body["message"])
	assert.NotContains(t, body, "data", "denial must not return records")
}

func TestAdminSalaryUpdateDeniedForStaff(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/employees",
		submitBody("John Doe", "john@example.com", "developer", 50000), "")
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBody(t, w)["data"].(map[string]interface{})["id"].(float64)

	staffToken, _, err := utils.GenerateToken([]byte(testSecret), 2, "staffer", "staff", time.Hour)
	require.NoError(t, err)

	path := fmt.Sprintf("/api/v1/admin/employees/%.0f/salary", id)
	w = doJSON(t, r, http.MethodPut, path, map[string]interface{}{
		"salary_in_euros": 45000,
	}, staffToken)
	require.Equal(t, http.StatusForbidden, w.Code)

	// The denied request mutated nothing.
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/employees/%.0f", id), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	record := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Nil(t, record["salary_in_euros"])
}

func TestAdminSalaryUpdateFlow(t *testing.T) {
	r := newTestRouter(t)
	token := adminToken(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/employees",
		submitBody("John Doe", "john@example.com", "developer", 50000), "")
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBody(t, w)["data"].(map[string]interface{})["id"].(float64)

	path := fmt.Sprintf("/api/v1/admin/employees/%.0f/salary", id)
	w = doJSON(t, r, http.MethodPut, path, map[string]interface{}{
		"salary_in_euros": 45000,
		"commission":      1000,
	}, token)
	require.Equal(t, http.StatusOK, w.Code)

	record := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "45000", record["salary_in_euros"])
	assert.Equal(t, "1000", record["commission"])
	assert.Equal(t, "46000", record["displayed_salary"])

	// Negative values are rejected with field detail and no write.
	w = doJSON(t, r, http.MethodPut, path, map[string]interface{}{
		"commission": -1,
	}, token)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	errs := decodeBody(t, w)["errors"].(map[string]interface{})
	assert.Contains(t, errs, "commission")

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/employees/%.0f", id), nil, "")
	record = decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "1000", record["commission"])

	// Unknown id surfaces as 404, not a silent no-op.
	w = doJSON(t, r, http.MethodPut, "/api/v1/admin/employees/4242/salary", map[string]interface{}{
		"salary_in_euros": 1,
	}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminListIncludesSalaryDetail(t *testing.T) {
	r := newTestRouter(t)
	token := adminToken(t)

	for i := 1; i <= 3; i++ {
		w := doJSON(t, r, http.MethodPost, "/api/v1/employees",
			submitBody(fmt.Sprintf("Employee %d", i), fmt.Sprintf("e%d@example.com", i), "analyst", 40000), "")
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/v1/admin/employees", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	data := body["data"].([]interface{})
	require.Len(t, data, 3)

	first := data[0].(map[string]interface{})
	for _, field := range []string{"id", "name", "email", "role",
		"salary_in_local_currency", "salary_in_euros", "commission",
		"displayed_salary", "created_at", "updated_at"} {
		assert.Contains(t, first, field)
	}
	assert.Equal(t, "Employee 3", first["name"], "newest first")

	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, float64(3), meta["total_count"])
	assert.Equal(t, float64(15), meta["page_size"])
}

func TestRegisterAndLoginEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"username": "alice", "email": "alice@example.com", "password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"username": "alice", "password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"username": "alice", "password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
