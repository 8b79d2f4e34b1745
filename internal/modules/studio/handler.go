package studio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/healthlearn/site/internal/middleware"
	"github.com/healthlearn/site/internal/models"
	"github.com/healthlearn/site/internal/modules/schema"
	"github.com/healthlearn/site/internal/modules/storage/asset"
	"github.com/healthlearn/site/internal/modules/storage/importer"
	"github.com/healthlearn/site/internal/pkg/jwt"
	"github.com/healthlearn/site/internal/pkg/pagination"
	"github.com/healthlearn/site/internal/pkg/response"
)

// maxImportBytes caps a dataset upload.
var maxImportBytes int64 = 64 << 20

const (
	maxDocumentBytes = 2 << 20
	maxAssetBytes    = 10 << 20

	// PreviewTokenTTL bounds a draft-mode session.
	PreviewTokenTTL = time.Hour
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/studio", authMW)
	g.GET("/schema", h.schema)
	g.GET("/documents/:type", h.list)
	g.GET("/documents/:type/:id", h.get)
	g.PUT("/documents/:type/:id", h.saveDraft)
	g.DELETE("/documents/:type/:id", h.delete)
	g.POST("/documents/:type/:id/publish", h.publish)
	g.POST("/documents/:type/:id/unpublish", h.unpublish)
	g.POST("/assets", h.uploadAsset)
	g.POST("/import", h.importDataset)
	g.POST("/preview-token", h.previewToken)
}

// fail maps service errors onto responses.
func fail(c *gin.Context, err error) {
	var (
		verr     *schema.ValidationError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		response.Invalid(c, verr.Errors)
	case errors.As(err, &tooLarge):
		response.PayloadTooLarge(c, fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit))
	case errors.Is(err, importer.ErrInvalidDataset):
		response.UnprocessableEntity(c, err.Error())
	case errors.Is(err, schema.ErrUnknownType), errors.Is(err, ErrNotFound):
		response.NotFoundMsg(c, err.Error())
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidBody), errors.Is(err, ErrSingletonMismatch):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrNothingToPublish), errors.Is(err, ErrNotPublished):
		response.Conflict(c, err.Error())
	case errors.Is(err, asset.ErrStorageDisabled):
		response.ServiceUnavailable(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

func (h *Handler) schema(c *gin.Context) {
	response.OK(c, h.svc.Schema())
}

func (h *Handler) list(c *gin.Context) {
	items, pag, err := h.svc.List(c.Request.Context(), c.Param("type"), pagination.FromContext(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Paged(c, items, pag)
}

func (h *Handler) get(c *gin.Context) {
	v, err := h.svc.Get(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.OK(c, v)
}

func (h *Handler) saveDraft(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxDocumentBytes)
	doc, err := h.svc.SaveDraft(c.Request.Context(), c.Param("type"), c.Param("id"), func(doc models.Document) error {
		return c.ShouldBindJSON(doc)
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.OK(c, doc)
}

func (h *Handler) publish(c *gin.Context) {
	doc, err := h.svc.Publish(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.OK(c, doc)
}

func (h *Handler) unpublish(c *gin.Context) {
	if err := h.svc.Unpublish(c.Request.Context(), c.Param("type"), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("type"), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) uploadAsset(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if file.Size > maxAssetBytes {
		response.BadRequest(c, "file too large")
		return
	}
	f, err := file.Open()
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	a, err := h.svc.UploadAsset(c.Request.Context(), data, file.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, asset.ErrStorageDisabled) {
			fail(c, err)
			return
		}
		response.UnprocessableEntity(c, err.Error())
		return
	}
	response.Created(c, a)
}

// importDataset accepts a multipart "file" (format from its extension) or
// a raw body with ?format=.
func (h *Handler) importDataset(c *gin.Context) {
	var (
		body   io.Reader
		format importer.Format
		err    error
	)
	if file, ferr := c.FormFile("file"); ferr == nil {
		if format, err = importer.DetectFormat(file.Filename); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if file.Size > maxImportBytes {
			response.PayloadTooLarge(c, fmt.Sprintf("dataset exceeds %d bytes", maxImportBytes))
			return
		}
		f, err := file.Open()
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		defer f.Close()
		body = f
	} else {
		if format, err = importer.ParseFormat(c.DefaultQuery("format", string(importer.FormatNDJSON))); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		// One byte past the limit tells a full body from an oversized one.
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes+1))
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if int64(len(raw)) > maxImportBytes {
			response.PayloadTooLarge(c, fmt.Sprintf("dataset exceeds %d bytes", maxImportBytes))
			return
		}
		body = bytes.NewReader(raw)
	}

	result, err := h.svc.Import(c.Request.Context(), body, format)
	if err != nil {
		fail(c, err)
		return
	}
	response.OK(c, result)
}

func (h *Handler) previewToken(c *gin.Context) {
	token, err := jwt.Sign(middleware.CurrentSubject(c), jwt.ScopePreview, PreviewTokenTTL)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, gin.H{
		"token":     token,
		"expiresAt": time.Now().Add(PreviewTokenTTL).UTC(),
	})
}
