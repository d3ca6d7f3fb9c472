package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/response"
	"github.com/vconnect/portal-backend/internal/service"
	"github.com/vconnect/portal-backend/internal/validator"
)

// DepartmentHandler handles department CRUD.
type DepartmentHandler struct {
	departmentService *service.DepartmentService
}

// NewDepartmentHandler creates a new DepartmentHandler.
func NewDepartmentHandler(departmentService *service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departmentService: departmentService}
}

// ListDepartments godoc
// GET /api/v1/departments
func (h *DepartmentHandler) ListDepartments(c *gin.Context) {
	departments, err := h.departmentService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"departments": departments})
}

// GetDepartment godoc
// GET /api/v1/departments/:id
func (h *DepartmentHandler) GetDepartment(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	department, err := h.departmentService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"department": department})
}

// CreateDepartment godoc
// POST /api/v1/departments
// hod_id, when given, must reference a FACULTY account.
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	var req model.DepartmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	department, err := h.departmentService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"department": department})
}

// UpdateDepartment godoc
// PUT /api/v1/departments/:id
func (h *DepartmentHandler) UpdateDepartment(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req model.DepartmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	department, err := h.departmentService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"department": department})
}

// DeleteDepartment godoc
// DELETE /api/v1/departments/:id
// Fails with DEPENDENCY_EXISTS while classes still reference the department.
func (h *DepartmentHandler) DeleteDepartment(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.departmentService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "department deleted"})
}
