package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vconnect/portal-backend/internal/middleware"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/response"
	"github.com/vconnect/portal-backend/internal/service"
	"github.com/vconnect/portal-backend/internal/validator"
)

// StudentHandler handles student profile management and bulk import.
type StudentHandler struct {
	studentService *service.StudentService
	maxUploadBytes int64
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService, maxUploadBytes int64) *StudentHandler {
	return &StudentHandler{studentService: studentService, maxUploadBytes: maxUploadBytes}
}

// ListStudents godoc
// GET /api/v1/students?class_id=&search=&page=&per_page=
// Lists students with pagination. Filterable by class and name/roll number.
func (h *StudentHandler) ListStudents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	classID, ok := queryUUID(c, "class_id")
	if !ok {
		return
	}

	students, pagination, err := h.studentService.List(c.Request.Context(), classID, c.Query("search"), page, perPage)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"students": students}, pagination)
}

// GetStudent godoc
// GET /api/v1/students/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// GetMyProfile godoc
// GET /api/v1/students/me
// Returns the profile behind the caller's STUDENT account.
func (h *StudentHandler) GetMyProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)

	student, err := h.studentService.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// CreateStudent godoc
// POST /api/v1/students
// Creates the STUDENT account and its profile. The password defaults to the roll number.
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req model.CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"student": student})
}

// UpdateStudent godoc
// PUT /api/v1/students/:id
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// DeleteStudent godoc
// DELETE /api/v1/students/:id
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.studentService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "student deleted"})
}

// ImportStudents godoc
// POST /api/v1/students/import?class_id=
// Imports students from the first sheet of an .xlsx upload (form field "file").
// Rows that fail validation or clash with existing accounts are skipped and reported.
func (h *StudentHandler) ImportStudents(c *gin.Context) {
	classID, ok := queryUUID(c, "class_id")
	if !ok {
		return
	}
	if classID == nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"class_id": "class_id is required",
		})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		return
	}

	result, err := h.studentService.Import(c.Request.Context(), *classID, file)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}
