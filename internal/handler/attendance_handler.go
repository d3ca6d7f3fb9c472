package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vconnect/portal-backend/internal/middleware"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/response"
	"github.com/vconnect/portal-backend/internal/service"
	"github.com/vconnect/portal-backend/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AttendanceHandler handles attendance marking and reports.
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(attendanceService *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService}
}

// rangeQuery is the optional from/to window shared by the report endpoints.
type rangeQuery struct {
	From string `form:"from" binding:"omitempty,isodate"`
	To   string `form:"to" binding:"omitempty,isodate"`
}

// MarkAttendance godoc
// POST /api/v1/attendance/mark
// Upserts one period of attendance for a class. Every student must belong to
// the class and the date may not be in the future.
func (h *AttendanceHandler) MarkAttendance(c *gin.Context) {
	var req model.MarkAttendanceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	saved, err := h.attendanceService.Mark(c.Request.Context(), &req, claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"saved": saved})
}

// ListAttendance godoc
// GET /api/v1/attendance?class_id=&student_id=&from=&to=
func (h *AttendanceHandler) ListAttendance(c *gin.Context) {
	var q model.AttendanceQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	records, err := h.attendanceService.List(c.Request.Context(), &q)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"records": records})
}

// ClassSummary godoc
// GET /api/v1/attendance/classes/:class_id/summary?from=&to=
// Per-student totals sorted by roll number, flagging low attendance.
func (h *AttendanceHandler) ClassSummary(c *gin.Context) {
	classID, ok := paramUUID(c, "class_id")
	if !ok {
		return
	}
	var q rangeQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	summary, err := h.attendanceService.ClassSummary(c.Request.Context(), classID, q.From, q.To)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"summary": summary})
}

// ClassDaily godoc
// GET /api/v1/attendance/classes/:class_id/daily?from=&to=
func (h *AttendanceHandler) ClassDaily(c *gin.Context) {
	classID, ok := paramUUID(c, "class_id")
	if !ok {
		return
	}
	var q rangeQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	days, err := h.attendanceService.Daily(c.Request.Context(), classID, q.From, q.To)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"days": days})
}

// MyAttendance godoc
// GET /api/v1/attendance/me?from=&to=
// Returns the calling student's summary and per-subject breakdown.
func (h *AttendanceHandler) MyAttendance(c *gin.Context) {
	var q rangeQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	mine, err := h.attendanceService.ForStudentUser(c.Request.Context(), claims.UserID, q.From, q.To)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, mine)
}

// ExportClass godoc
// GET /api/v1/attendance/classes/:class_id/export?from=&to=
// Streams the class register as an .xlsx attachment.
func (h *AttendanceHandler) ExportClass(c *gin.Context) {
	classID, ok := paramUUID(c, "class_id")
	if !ok {
		return
	}
	var q rangeQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	buf, filename, err := h.attendanceService.Export(c.Request.Context(), classID, q.From, q.To)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
