// Package httpadapter exposes the document workflow over HTTP. Identity is
// header-based: every protected route reads X-Actor-Id and resolves it
// against the configured actor roster.
package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/docflowhq/docflow/internal/core/domain"
	"github.com/docflowhq/docflow/internal/core/ports"
	"github.com/docflowhq/docflow/internal/infrastructure/report"
	"github.com/docflowhq/docflow/internal/observability/metrics"
)

const actorIDHeader = "X-Actor-Id"

// ActorResolver maps an actor id from a request header to a registered
// identity.
type ActorResolver interface {
	Resolve(id string) (domain.Actor, error)
}

type Config struct {
	Service          string
	MaxUploadBytes   int64
	UploadsPerMinute int
	Departments      []domain.DepartmentInfo
}

type Router struct {
	cfg      Config
	ingestUC ports.DocumentIngestor
	reviewUC ports.DocumentReviewer
	readerUC ports.DocumentReader
	resolver ActorResolver
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg Config,
	ingestUC ports.DocumentIngestor,
	reviewUC ports.DocumentReviewer,
	readerUC ports.DocumentReader,
	resolver ActorResolver,
	m *metrics.HTTPServerMetrics,
) *Router {
	if cfg.Service == "" {
		cfg.Service = "api"
	}
	return &Router{
		cfg:      cfg,
		ingestUC: ingestUC,
		reviewUC: reviewUC,
		readerUC: readerUC,
		resolver: resolver,
		metrics:  m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)

	upload := http.Handler(http.HandlerFunc(rt.uploadDocument))
	upload = uploadRateLimitMiddleware(upload, rt.cfg.UploadsPerMinute, rt.recordRateLimited)
	mux.Handle("POST /v1/documents", upload)

	mux.HandleFunc("GET /v1/documents", rt.listOwnDocuments)
	mux.HandleFunc("GET /v1/documents/{id}", rt.getDocument)
	mux.HandleFunc("DELETE /v1/documents/{id}", rt.deleteDocument)
	mux.HandleFunc("POST /v1/documents/{id}/review", rt.reviewDocument)

	mux.HandleFunc("GET /v1/departments", rt.listDepartments)
	mux.HandleFunc("GET /v1/department/pending", rt.listDepartmentPending)
	mux.HandleFunc("GET /v1/department/documents", rt.listDepartmentDocuments)

	mux.HandleFunc("GET /v1/admin/pending", rt.listAdminPending)
	mux.HandleFunc("GET /v1/admin/documents", rt.listAdminDocuments)
	mux.HandleFunc("GET /v1/admin/export", rt.exportRegister)

	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	handler := http.Handler(mux)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.cfg.Service, handler)
	}
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.requireRole(w, r, domain.RoleStudent)
	if !ok {
		return
	}

	// Slack on top of the document cap covers multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes+64*1024)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			rt.recordUpload("oversized", 0)
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": fmt.Sprintf("upload exceeds limit of %d bytes", rt.cfg.MaxUploadBytes),
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	if fileHeader.Size > rt.cfg.MaxUploadBytes {
		rt.recordUpload("oversized", fileHeader.Size)
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
			"error": fmt.Sprintf("upload exceeds limit of %d bytes", rt.cfg.MaxUploadBytes),
		})
		return
	}

	doc, err := rt.ingestUC.Upload(
		r.Context(),
		actor,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		rt.recordUpload("rejected", fileHeader.Size)
		rt.writeError(w, r, err)
		return
	}

	rt.recordUpload("accepted", fileHeader.Size)
	writeJSON(w, http.StatusAccepted, newDocumentView(doc))
}

func (rt *Router) listOwnDocuments(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.requireRole(w, r, domain.RoleStudent)
	if !ok {
		return
	}
	docs, err := rt.readerUC.ListOwned(r.Context(), actor.ID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDocumentViews(docs))
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	actor, err := rt.actor(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	doc, err := rt.readerUC.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if !canSeeDocument(actor, doc) {
		// Hide existence from actors outside the document's audience.
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "document not found"})
		return
	}
	writeJSON(w, http.StatusOK, newDocumentView(doc))
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	actor, err := rt.actor(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if err := rt.reviewUC.Delete(r.Context(), r.PathValue("id"), actor); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) reviewDocument(w http.ResponseWriter, r *http.Request) {
	actor, err := rt.actor(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	var req struct {
		Action  string `json:"action"`
		Remarks string `json:"remarks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	action, err := domain.ParseAction(req.Action)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	doc, err := rt.reviewUC.SubmitReview(r.Context(), r.PathValue("id"), actor, action, req.Remarks)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	if rt.metrics != nil {
		stage := ""
		if last := doc.LastStage(); last != nil {
			stage = last.Stage
		}
		rt.metrics.RecordReviewDecision(rt.cfg.Service, stage, string(action))
	}
	writeJSON(w, http.StatusOK, newDocumentView(doc))
}

func (rt *Router) listDepartments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"departments": rt.cfg.Departments})
}

func (rt *Router) listDepartmentPending(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.requireRole(w, r, domain.RoleDepartment)
	if !ok {
		return
	}
	docs, err := rt.readerUC.ListPendingDepartment(r.Context(), actor.Department)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDocumentViews(docs))
}

func (rt *Router) listDepartmentDocuments(w http.ResponseWriter, r *http.Request) {
	actor, ok := rt.requireRole(w, r, domain.RoleDepartment)
	if !ok {
		return
	}
	docs, err := rt.readerUC.ListByDepartment(r.Context(), actor.Department)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDocumentViews(docs))
}

func (rt *Router) listAdminPending(w http.ResponseWriter, r *http.Request) {
	if _, ok := rt.requireRole(w, r, domain.RoleAdmin); !ok {
		return
	}
	docs, err := rt.readerUC.ListPendingAdmin(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDocumentViews(docs))
}

func (rt *Router) listAdminDocuments(w http.ResponseWriter, r *http.Request) {
	if _, ok := rt.requireRole(w, r, domain.RoleAdmin); !ok {
		return
	}
	docs, err := rt.readerUC.ListAll(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDocumentViews(docs))
}

func (rt *Router) exportRegister(w http.ResponseWriter, r *http.Request) {
	if _, ok := rt.requireRole(w, r, domain.RoleAdmin); !ok {
		return
	}
	docs, err := rt.readerUC.ListAll(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("register_%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := report.WriteRegister(w, docs); err != nil {
		slog.Error("register_export_failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
	}
}

func (rt *Router) actor(r *http.Request) (domain.Actor, error) {
	id := strings.TrimSpace(r.Header.Get(actorIDHeader))
	if id == "" {
		return domain.Actor{}, domain.WrapError(domain.ErrUnauthorized, "resolve actor",
			errors.New("missing X-Actor-Id header"))
	}
	return rt.resolver.Resolve(id)
}

func (rt *Router) requireRole(w http.ResponseWriter, r *http.Request, role domain.Role) (domain.Actor, bool) {
	actor, err := rt.actor(r)
	if err != nil {
		rt.writeError(w, r, err)
		return domain.Actor{}, false
	}
	if actor.Role != role {
		writeJSON(w, http.StatusForbidden, map[string]string{
			"error": fmt.Sprintf("route requires role %s", role),
		})
		return domain.Actor{}, false
	}
	return actor, true
}

func canSeeDocument(actor domain.Actor, doc *domain.Document) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleDepartment:
		return doc.Department != "" && doc.Department == actor.Department
	default:
		return doc.OwnerID == actor.ID
	}
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (rt *Router) recordUpload(result string, size int64) {
	if rt.metrics != nil {
		rt.metrics.RecordUpload(rt.cfg.Service, result, size)
	}
}

func (rt *Router) recordRateLimited() {
	if rt.metrics != nil {
		rt.metrics.RecordRateLimited(rt.cfg.Service)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
