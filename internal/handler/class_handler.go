package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/response"
	"github.com/vconnect/portal-backend/internal/service"
	"github.com/vconnect/portal-backend/internal/validator"
)

// ClassHandler handles class management and rosters.
type ClassHandler struct {
	classService *service.ClassService
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(classService *service.ClassService) *ClassHandler {
	return &ClassHandler{classService: classService}
}

// ListClasses godoc
// GET /api/v1/classes?department_id=
// Lists all classes without pagination.
func (h *ClassHandler) ListClasses(c *gin.Context) {
	departmentID, ok := queryUUID(c, "department_id")
	if !ok {
		return
	}

	classes, err := h.classService.List(c.Request.Context(), departmentID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"classes": classes})
}

// GetClass godoc
// GET /api/v1/classes/:id
func (h *ClassHandler) GetClass(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	class, err := h.classService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"class": class})
}

// GetRoster godoc
// GET /api/v1/classes/:id/students
func (h *ClassHandler) GetRoster(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	students, err := h.classService.Roster(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"students": students})
}

// CreateClass godoc
// POST /api/v1/classes
// Creates a new class. Department, year and section must be unique together.
func (h *ClassHandler) CreateClass(c *gin.Context) {
	var req model.ClassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	class, err := h.classService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"class": class})
}

// UpdateClass godoc
// PUT /api/v1/classes/:id
// Updates an existing class.
func (h *ClassHandler) UpdateClass(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req model.ClassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	class, err := h.classService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"class": class})
}

// DeleteClass godoc
// DELETE /api/v1/classes/:id
// Deletes a class. Fails if students are still enrolled.
func (h *ClassHandler) DeleteClass(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.classService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "class deleted"})
}
