package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden        ErrCode = "FORBIDDEN"
	ErrPermissionDenied ErrCode = "PERMISSION_DENIED"
	ErrNotGroupMember   ErrCode = "NOT_GROUP_MEMBER"
	ErrNotGroupAdmin    ErrCode = "NOT_GROUP_ADMIN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidDate    ErrCode = "INVALID_DATE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"
	ErrActionForbidden  ErrCode = "ACTION_FORBIDDEN"

	// ─── Academics ─────────────────────────────────────────────────────
	ErrInvalidCoordinator ErrCode = "INVALID_COORDINATOR"
	ErrStudentNotInClass  ErrCode = "STUDENT_NOT_IN_CLASS"
	ErrFutureDate         ErrCode = "FUTURE_DATE"

	// ─── Library ───────────────────────────────────────────────────────
	ErrBookUnavailable  ErrCode = "BOOK_UNAVAILABLE"
	ErrIssueLimit       ErrCode = "ISSUE_LIMIT_REACHED"
	ErrUnpaidFines      ErrCode = "UNPAID_FINES"
	ErrAlreadyReturned  ErrCode = "ALREADY_RETURNED"
	ErrNoFineDue        ErrCode = "NO_FINE_DUE"
	ErrCopiesBelowIssue ErrCode = "COPIES_BELOW_ISSUED"

	// ─── Groups ────────────────────────────────────────────────────────
	ErrLastGroupAdmin  ErrCode = "LAST_GROUP_ADMIN"
	ErrCallNotActive   ErrCode = "CALL_NOT_ACTIVE"
	ErrInvalidMessage  ErrCode = "INVALID_MESSAGE"
	ErrInvalidReply    ErrCode = "INVALID_REPLY"
	ErrMessageDeleted  ErrCode = "MESSAGE_DELETED"
	ErrNotMessageOwner ErrCode = "NOT_MESSAGE_OWNER"

	// ─── Meetings ──────────────────────────────────────────────────────
	ErrInvalidParticipant ErrCode = "INVALID_PARTICIPANT"

	// ─── ID cards ──────────────────────────────────────────────────────
	ErrCardNotIssued ErrCode = "CARD_NOT_ISSUED"

	// ─── Media / Import ────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"
	ErrInvalidSheet    ErrCode = "INVALID_SPREADSHEET"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

var messages = map[ErrCode]string{
	ErrInvalidCredentials: "Invalid email or password.",
	ErrSessionInvalidated: "Your session has ended. Please log in again.",
	ErrTokenRequired:      "Authentication token is required.",
	ErrTokenInvalid:       "Authentication token is invalid.",
	ErrTokenExpired:       "Authentication token has expired.",

	ErrForbidden:        "You do not have access to this resource.",
	ErrPermissionDenied: "Permission denied.",
	ErrNotGroupMember:   "You are not a member of this group.",
	ErrNotGroupAdmin:    "Only group admins can do this.",

	ErrValidation:     "Validation failed. Please check your input.",
	ErrInvalidID:      "Invalid ID format.",
	ErrInvalidPayload: "Invalid request payload.",
	ErrInvalidDate:    "Invalid date. Use YYYY-MM-DD.",

	ErrNotFound:         "Resource not found.",
	ErrConflict:         "Resource already exists.",
	ErrDependencyExists: "This record is still referenced by other data.",
	ErrActionForbidden:  "This action is not allowed.",

	ErrInvalidCoordinator: "Coordinator must be an existing faculty member.",
	ErrStudentNotInClass:  "One or more students do not belong to this class.",
	ErrFutureDate:         "Attendance cannot be marked for a future date.",

	ErrBookUnavailable:  "No copies of this book are available.",
	ErrIssueLimit:       "The student has reached the maximum number of issued books.",
	ErrUnpaidFines:      "The student has unpaid library fines.",
	ErrAlreadyReturned:  "This book has already been returned.",
	ErrNoFineDue:        "There is no fine due on this issue.",
	ErrCopiesBelowIssue: "Total copies cannot be less than copies currently issued.",

	ErrLastGroupAdmin:  "A group must keep at least one admin.",
	ErrCallNotActive:   "This call has already ended.",
	ErrInvalidMessage:  "Messages must contain 1 to 4000 characters of text.",
	ErrInvalidReply:    "The message being replied to is not in this group.",
	ErrMessageDeleted:  "This message has been deleted.",
	ErrNotMessageOwner: "You can only change your own messages.",

	ErrInvalidParticipant: "Meeting participants must be faculty members.",

	ErrCardNotIssued: "No ID card has been issued yet.",

	ErrFileRequired:    "A file upload is required.",
	ErrUnsupportedFile: "Unsupported file type.",
	ErrFileTooLarge:    "File exceeds the size limit.",
	ErrInvalidSheet:    "The spreadsheet could not be read.",

	ErrRateLimitExceeded: "Too many requests. Please try again later.",

	ErrInternal: "Internal server error.",
}

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "An unexpected error occurred."
}
