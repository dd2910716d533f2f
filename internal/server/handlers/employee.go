package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"paygrid-system/internal/employee"
)

type EmployeeHTTPHandler struct {
	store *employee.Store
}

func NewEmployeeHTTPHandler(store *employee.Store) *EmployeeHTTPHandler {
	return &EmployeeHTTPHandler{
		store: store,
	}
}

type SubmitEmployeeRequest struct {
	Name                  string           `json:"name" binding:"required"`
	Email                 string           `json:"email" binding:"required,email"`
	Role                  string           `json:"role" binding:"required"`
	SalaryInLocalCurrency *decimal.Decimal `json:"salary_in_local_currency" binding:"required"`
}

type UpdateSalaryRequest struct {
	SalaryInEuros *decimal.Decimal `json:"salary_in_euros,omitempty"`
	Commission    *decimal.Decimal `json:"commission,omitempty"`
}

type ListEmployeesQuery struct {
	Page     int `form:"page,default=1"`
	PageSize int `form:"page_size,default=15"`
}

// SubmitEmployee is the public upsert endpoint: a new email creates a
// record (201), a known email overwrites name/role/local salary (200).
func (h *EmployeeHTTPHandler) SubmitEmployee(c *gin.Context) {
	var req SubmitEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	record, created, err := h.store.Submit(c.Request.Context(), employee.SubmitInput{
		Name:                  req.Name,
		Email:                 req.Email,
		Role:                  req.Role,
		SalaryInLocalCurrency: *req.SalaryInLocalCurrency,
	})
	if err != nil {
		storeError(c, err)
		return
	}

	if created {
		c.JSON(http.StatusCreated, successResponse("Employee created successfully", record))
		return
	}
	c.JSON(http.StatusOK, successResponse("Employee updated successfully", record))
}

func (h *EmployeeHTTPHandler) GetEmployee(c *gin.Context) {
	id, ok := employeeID(c)
	if !ok {
		return
	}

	record, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Employee retrieved successfully", record))
}

func (h *EmployeeHTTPHandler) UpdateEmployee(c *gin.Context) {
	id, ok := employeeID(c)
	if !ok {
		return
	}

	var req SubmitEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	record, err := h.store.Update(c.Request.Context(), id, employee.SubmitInput{
		Name:                  req.Name,
		Email:                 req.Email,
		Role:                  req.Role,
		SalaryInLocalCurrency: *req.SalaryInLocalCurrency,
	})
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Employee updated successfully", record))
}

func (h *EmployeeHTTPHandler) DeleteEmployee(c *gin.Context) {
	id, ok := employeeID(c)
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		storeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *EmployeeHTTPHandler) ListEmployees(c *gin.Context) {
	var query ListEmployeesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid pagination parameters"))
		return
	}

	records, pagination, err := h.store.List(c.Request.Context(), query.Page, query.PageSize)
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Employees retrieved successfully", records, pagination))
}

// ListEmployeesAdmin serves the salary-detail listing. The records
// already carry the salary fields; the route, not the shape, is what
// the admin gate protects.
func (h *EmployeeHTTPHandler) ListEmployeesAdmin(c *gin.Context) {
	h.ListEmployees(c)
}

// UpdateEmployeeSalary mutates euro salary and commission, the only
// write path for either field. Reached only through the admin gate.
func (h *EmployeeHTTPHandler) UpdateEmployeeSalary(c *gin.Context) {
	id, ok := employeeID(c)
	if !ok {
		return
	}

	var req UpdateSalaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	record, err := h.store.UpdateSalary(c.Request.Context(), id, employee.SalaryInput{
		SalaryInEuros: req.SalaryInEuros,
		Commission:    req.Commission,
	})
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Salary updated successfully", record))
}

func employeeID(c *gin.Context) (int64, bool) {
	idParam := c.Param("id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid employee ID"))
		return 0, false
	}
	return id, true
}
