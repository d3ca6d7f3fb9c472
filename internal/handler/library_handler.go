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

// LibraryHandler handles the catalogue, issues, returns and fines.
type LibraryHandler struct {
	libraryService *service.LibraryService
}

// NewLibraryHandler creates a new LibraryHandler.
func NewLibraryHandler(libraryService *service.LibraryService) *LibraryHandler {
	return &LibraryHandler{libraryService: libraryService}
}

// ─── Books ──────────────────────────────────────────────────────────────────

// ListBooks godoc
// GET /api/v1/library/books?search=&page=&per_page=
func (h *LibraryHandler) ListBooks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	books, pagination, err := h.libraryService.ListBooks(c.Request.Context(), c.Query("search"), page, perPage)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"books": books}, pagination)
}

// GetBook godoc
// GET /api/v1/library/books/:id
func (h *LibraryHandler) GetBook(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	book, err := h.libraryService.GetBook(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"book": book})
}

// CreateBook godoc
// POST /api/v1/library/books
func (h *LibraryHandler) CreateBook(c *gin.Context) {
	var req model.BookRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	book, err := h.libraryService.CreateBook(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"book": book})
}

// UpdateBook godoc
// PUT /api/v1/library/books/:id
// total_copies may not drop below the number of copies currently issued.
func (h *LibraryHandler) UpdateBook(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req model.BookRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	book, err := h.libraryService.UpdateBook(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"book": book})
}

// DeleteBook godoc
// DELETE /api/v1/library/books/:id
func (h *LibraryHandler) DeleteBook(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.libraryService.DeleteBook(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "book deleted"})
}

// ─── Issues ─────────────────────────────────────────────────────────────────

// IssueBook godoc
// POST /api/v1/library/issues
// Lends a copy to a student. Rejected when no copy is available, the student
// is at the active-issue limit, or has unpaid fines.
func (h *LibraryHandler) IssueBook(c *gin.Context) {
	var req model.IssueBookRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	issue, err := h.libraryService.Issue(c.Request.Context(), &req, claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"issue": issue})
}

// ReturnBook godoc
// POST /api/v1/library/issues/:id/return
func (h *LibraryHandler) ReturnBook(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	issue, err := h.libraryService.Return(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"issue": issue})
}

// PayFine godoc
// POST /api/v1/library/issues/:id/pay
func (h *LibraryHandler) PayFine(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	issue, err := h.libraryService.PayFine(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"issue": issue})
}

// GetIssue godoc
// GET /api/v1/library/issues/:id
func (h *LibraryHandler) GetIssue(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	issue, err := h.libraryService.GetIssue(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"issue": issue})
}

// ListIssues godoc
// GET /api/v1/library/issues?status=&student_id=&page=&per_page=
func (h *LibraryHandler) ListIssues(c *gin.Context) {
	var q model.IssueQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	issues, pagination, err := h.libraryService.ListIssues(c.Request.Context(), &q)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"issues": issues}, pagination)
}

// PendingFines godoc
// GET /api/v1/library/fines
// Unpaid fines, with the running fine computed live for overdue loans.
func (h *LibraryHandler) PendingFines(c *gin.Context) {
	fines, total, err := h.libraryService.PendingFines(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"fines": fines, "total": total})
}

// MyLibrary godoc
// GET /api/v1/library/me
func (h *LibraryHandler) MyLibrary(c *gin.Context) {
	claims := middleware.GetClaims(c)

	mine, err := h.libraryService.ForStudentUser(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, mine)
}
