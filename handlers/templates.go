package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stencild/stencild/internal/archive"
	"github.com/stencild/stencild/internal/authz"
	"github.com/stencild/stencild/internal/render"
	"github.com/stencild/stencild/internal/storage"
	"github.com/stencild/stencild/internal/templates"
	"github.com/stencild/stencild/pkg/logger"
	"github.com/stencild/stencild/pkg/metrics"
	"github.com/stencild/stencild/pkg/middleware"
)

type CreateTemplateRequest struct {
	Name    string `json:"name" binding:"required"`
	Content string `json:"content" binding:"required"`
	Public  bool   `json:"public"`
}

type UpdateTemplateRequest struct {
	Name    *string `json:"name"`
	Content *string `json:"content"`
	Public  *bool   `json:"public"`
}

type RenderRequest struct {
	Data map[string]any `json:"data"`
}

// TemplatesHandler exposes template CRUD plus rendering. The render store and
// archive are optional; without them ?store=true is rejected.
type TemplatesHandler struct {
	svc     *templates.Service
	renders *storage.RenderStore
	archive *archive.Store
}

func NewTemplatesHandler(svc *templates.Service, renders *storage.RenderStore, arch *archive.Store) *TemplatesHandler {
	return &TemplatesHandler{svc: svc, renders: renders, archive: arch}
}

// Register routes under /templates. All of them require authentication.
func (h *TemplatesHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/templates", middleware.RequireUser())
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/render", h.Render)
	g.GET("/:id/renders", h.ListRenders)
}

func (h *TemplatesHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *TemplatesHandler) Create(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.svc.Create(c.Request.Context(), middleware.CurrentUser(c), req.Name, req.Content, req.Public)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *TemplatesHandler) Get(c *gin.Context) {
	t, err := h.svc.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TemplatesHandler) Update(c *gin.Context) {
	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.svc.Update(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Name, req.Content, req.Public)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TemplatesHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Render expands the template with the posted data. With ?store=true the
// output is also uploaded to object storage and recorded in the archive, and
// the response carries the object key plus a presigned download URL.
func (h *TemplatesHandler) Render(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u := middleware.CurrentUser(c)
	id := c.Param("id")
	out, err := h.svc.Render(c.Request.Context(), u, id, req.Data)
	if err != nil {
		var syn *render.SyntaxError
		if errors.As(err, &syn) {
			metrics.RendersTotal.WithLabelValues("syntax_error").Inc()
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": syn.Error(), "block": syn.Block})
			return
		}
		metrics.RendersTotal.WithLabelValues(renderOutcome(err)).Inc()
		h.fail(c, err)
		return
	}
	metrics.RendersTotal.WithLabelValues("ok").Inc()

	resp := gin.H{"rendered": out}
	if c.Query("store") == "true" {
		if h.renders == nil {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "render storage not configured"})
			return
		}
		key := fmt.Sprintf("renders/%s/%d.html", id, time.Now().UnixNano())
		ctx := c.Request.Context()
		if err := h.renders.PutRendered(ctx, key, out, "text/html; charset=utf-8"); err != nil {
			logger.Errorf("store render %s: %v", key, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store rendered output"})
			return
		}
		if err := h.archive.Save(ctx, &archive.Record{ObjectKey: key, TemplateID: id, SubjectID: u.ID}); err != nil {
			logger.Errorf("archive render %s: %v", key, err)
		}
		resp["objectKey"] = key
		if url, err := h.renders.PresignedURL(ctx, key, 15*time.Minute); err == nil {
			resp["url"] = url
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ListRenders returns the archived renders of one template, newest first.
// Requires read access to the template.
func (h *TemplatesHandler) ListRenders(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.svc.Get(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		h.fail(c, err)
		return
	}
	recs, err := h.archive.ListByTemplate(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if recs == nil {
		recs = []*archive.Record{}
	}
	c.JSON(http.StatusOK, recs)
}

// renderOutcome classifies a non-syntax render failure for the metric label.
func renderOutcome(err error) string {
	var denied *authz.AccessDeniedError
	switch {
	case errors.Is(err, templates.ErrNotFound):
		return "not_found"
	case errors.As(err, &denied):
		return "denied"
	}
	return "error"
}

// fail maps service errors to HTTP statuses. NotFound and denied stay
// distinct.
func (h *TemplatesHandler) fail(c *gin.Context, err error) {
	var denied *authz.AccessDeniedError
	switch {
	case errors.Is(err, templates.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, gin.H{"error": denied.Error()})
	default:
		logger.Errorf("templates: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
