package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vconnect/portal-backend/internal/middleware"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/response"
	"github.com/vconnect/portal-backend/internal/service"
	"github.com/vconnect/portal-backend/internal/validator"
)

type WorkloadHandler struct {
	workloadService *service.WorkloadService
}

func NewWorkloadHandler(workloadService *service.WorkloadService) *WorkloadHandler {
	return &WorkloadHandler{workloadService: workloadService}
}

// GetFacultyWorkload godoc
// GET /api/v1/workload/faculty/:id
// Faculty may read their own workload; anyone else needs workload:read.
func (h *WorkloadHandler) GetFacultyWorkload(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	if id != claims.UserID && !claims.HasPermission(model.PermissionWorkloadRead) {
		response.Fail(c, http.StatusForbidden, response.ErrPermissionDenied)
		return
	}

	workload, err := h.workloadService.ForFaculty(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"workload": workload})
}

// GetMyWorkload godoc
// GET /api/v1/workload/me
func (h *WorkloadHandler) GetMyWorkload(c *gin.Context) {
	claims := middleware.GetClaims(c)

	workload, err := h.workloadService.ForFaculty(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"workload": workload})
}

// GetReport godoc
// GET /api/v1/workload/report?department_id=
func (h *WorkloadHandler) GetReport(c *gin.Context) {
	departmentID, ok := queryUUID(c, "department_id")
	if !ok {
		return
	}

	report, err := h.workloadService.Report(c.Request.Context(), departmentID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"report": report})
}

// ListAssignments godoc
// GET /api/v1/workload/assignments?faculty_id=
func (h *WorkloadHandler) ListAssignments(c *gin.Context) {
	facultyID, ok := queryUUID(c, "faculty_id")
	if !ok {
		return
	}

	assignments, err := h.workloadService.ListAssignments(c.Request.Context(), facultyID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assignments": assignments})
}

// GetAssignment godoc
// GET /api/v1/workload/assignments/:id
func (h *WorkloadHandler) GetAssignment(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	assignment, err := h.workloadService.GetAssignment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assignment": assignment})
}

// CreateAssignment godoc
// POST /api/v1/workload/assignments
func (h *WorkloadHandler) CreateAssignment(c *gin.Context) {
	var req model.FacultyAssignmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	assignment, err := h.workloadService.CreateAssignment(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"assignment": assignment})
}

// UpdateAssignment godoc
// PUT /api/v1/workload/assignments/:id
func (h *WorkloadHandler) UpdateAssignment(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req model.FacultyAssignmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	assignment, err := h.workloadService.UpdateAssignment(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assignment": assignment})
}

// DeleteAssignment godoc
// DELETE /api/v1/workload/assignments/:id
func (h *WorkloadHandler) DeleteAssignment(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.workloadService.DeleteAssignment(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "assignment deleted"})
}
