package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/hall-booking/internal/application"
)

type issueService interface {
	ReportIssue(ctx context.Context, params application.ReportIssueParams) (application.Issue, error)
	AssignIssue(ctx context.Context, params application.AssignIssueParams) (application.Issue, error)
	ListIssues(ctx context.Context, principal application.Principal, status application.IssueStatus) ([]application.Issue, error)
}

type IssueHandler struct {
	service   issueService
	responder responder
	logger    *slog.Logger
}

func NewIssueHandler(service issueService, logger *slog.Logger) *IssueHandler {
	base := defaultLogger(logger)
	return &IssueHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *IssueHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "IssueHandler", operation, attrs...)
}

func (h *IssueHandler) Report(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req reportIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Report", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode issue request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Report", "principal_id", principal.UserID, "booking_id", req.BookingID)

	issue, err := h.service.ReportIssue(r.Context(), application.ReportIssueParams{
		Principal:   principal,
		BookingID:   strings.TrimSpace(req.BookingID),
		HallID:      strings.TrimSpace(req.HallID),
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "issue report failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("issue_id", issue.ID).InfoContext(r.Context(), "issue reported")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, issueResponse{Issue: toIssueDTO(issue)})
}

func (h *IssueHandler) Assign(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	issueID, ok := IssueIDFromContext(r.Context())
	if !ok || strings.TrimSpace(issueID) == "" {
		h.log(r.Context(), "Assign", "error_kind", "bad_request").ErrorContext(r.Context(), "missing issue id for assignment")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidIssueID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req assignIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Assign", "principal_id", principal.UserID, "issue_id", issueID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode assignment request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Assign", "principal_id", principal.UserID, "issue_id", issueID, "scheduler_id", req.SchedulerID)

	issue, err := h.service.AssignIssue(r.Context(), application.AssignIssueParams{
		Principal:   principal,
		IssueID:     issueID,
		SchedulerID: strings.TrimSpace(req.SchedulerID),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "issue assignment failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "issue assigned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, issueResponse{Issue: toIssueDTO(issue)})
}

func (h *IssueHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	status := application.IssueStatus(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))))

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "status", string(status))

	issues, err := h.service.ListIssues(r.Context(), principal, status)
	if err != nil {
		logger.ErrorContext(r.Context(), "issue list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(issues)).InfoContext(r.Context(), "issues listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listIssuesResponse{Issues: toIssueDTOs(issues)})
}

type reportIssueRequest struct {
	BookingID   string `json:"booking_id"`
	HallID      string `json:"hall_id"`
	Description string `json:"description"`
}

type assignIssueRequest struct {
	SchedulerID string `json:"scheduler_id"`
}

type issueResponse struct {
	Issue issueDTO `json:"issue"`
}

type listIssuesResponse struct {
	Issues []issueDTO `json:"issues"`
}

type issueDTO struct {
	ID                  string `json:"id"`
	CustomerID          string `json:"customer_id"`
	BookingID           string `json:"booking_id"`
	HallID              string `json:"hall_id"`
	Description         string `json:"description"`
	Status              string `json:"status"`
	AssignedSchedulerID string `json:"assigned_scheduler_id,omitempty"`
	Resolution          string `json:"resolution,omitempty"`
	ReportedAt          string `json:"reported_at"`
	UpdatedAt           string `json:"updated_at"`
}

func toIssueDTO(issue application.Issue) issueDTO {
	return issueDTO{
		ID:                  issue.ID,
		CustomerID:          issue.CustomerID,
		BookingID:           issue.BookingID,
		HallID:              issue.HallID,
		Description:         issue.Description,
		Status:              string(issue.Status),
		AssignedSchedulerID: issue.AssignedSchedulerID,
		Resolution:          issue.Resolution,
		ReportedAt:          issue.ReportedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:           issue.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toIssueDTOs(issues []application.Issue) []issueDTO {
	if len(issues) == 0 {
		return nil
	}
	out := make([]issueDTO, 0, len(issues))
	for _, issue := range issues {
		out = append(out, toIssueDTO(issue))
	}
	return out
}
