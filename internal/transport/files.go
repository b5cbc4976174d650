package transport

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/guregu/null/v6"
	"github.com/labstack/echo/v4"

	"github.com/ciyex-org/ciyex-platform-sdk/internal/db"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/model"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/service"
	"github.com/ciyex-org/ciyex-platform-sdk/pkg/response"
)

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	var coded model.Error
	if !errors.As(err, &coded) {
		return http.StatusInternalServerError
	}
	switch coded.Code() {
	case model.ErrValidation.Code():
		return http.StatusBadRequest
	case model.ErrUnauthorized.Code():
		return http.StatusUnauthorized
	case model.ErrObjectNotFound.Code():
		return http.StatusNotFound
	case model.ErrLinkExpired.Code():
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func fail(c echo.Context, err error) error {
	return response.FromError(c.Response(), statusFor(err), err)
}

type StoreBytesRequest struct {
	FilePath         string `header:"X-File-Path" validate:"required,max=1024,objectkey"`
	ContentType      string `header:"Content-Type"`
	SourceService    string `header:"X-Source-Service"`
	OrgID            string `header:"X-Org-Id"`
	ReferenceID      string `header:"X-Reference-Id"`
	OriginalFilename string `header:"X-Original-Filename"`
}

type StoreBytesResponse struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Size int64  `json:"size"`
	Hash string `json:"hash"`
}

func (h *Handler) StoreBytes(c echo.Context) error {
	var req StoreBytesRequest
	if err := (&echo.DefaultBinder{}).BindHeaders(c, &req); err != nil {
		return response.FromError(c.Response(), http.StatusBadRequest, model.ErrValidation.Fmt(err.Error()))
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, err)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	sourceService := req.SourceService
	if sourceService == "" {
		sourceService = "unknown"
	}

	file, err := h.svc.Store(c.Request().Context(), service.StoreParams{
		Key:              req.FilePath,
		ContentType:      contentType,
		OrgID:            req.OrgID,
		SourceService:    sourceService,
		ReferenceID:      null.NewString(req.ReferenceID, req.ReferenceID != ""),
		OriginalFilename: null.NewString(req.OriginalFilename, req.OriginalFilename != ""),
		Body:             c.Request().Body,
	})
	if err != nil {
		return fail(c, err)
	}

	return response.FromDTO(c.Response(), http.StatusOK, StoreBytesResponse{
		ID:   file.ID,
		Key:  file.ObjectKey,
		Size: file.Size,
		Hash: file.Hash,
	})
}

type KeyRequest struct {
	Key string `query:"key" validate:"required,objectkey"`
}

type PresignedURLRequest struct {
	Key    string `query:"key" validate:"required,objectkey"`
	Expiry int64  `query:"expiry" validate:"required,gte=1"`
}

type PresignedURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) PresignedURL(c echo.Context) error {
	var req PresignedURLRequest
	if err := c.Bind(&req); err != nil {
		return response.FromError(c.Response(), http.StatusBadRequest, model.ErrValidation.Fmt(err.Error()))
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, err)
	}

	link, url, err := h.svc.Presign(c.Request().Context(), req.Key, time.Duration(req.Expiry)*time.Second)
	if err != nil {
		return fail(c, err)
	}

	return response.FromDTO(c.Response(), http.StatusOK, PresignedURLResponse{URL: url, ExpiresAt: link.ExpiresAt})
}

func (h *Handler) bindKey(c echo.Context) (string, error) {
	var req KeyRequest
	if err := c.Bind(&req); err != nil {
		return "", model.ErrValidation.Fmt(err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return "", err
	}
	return req.Key, nil
}

func (h *Handler) Exists(c echo.Context) error {
	key, err := h.bindKey(c)
	if err != nil {
		return c.NoContent(statusFor(err))
	}

	ok, err := h.svc.Exists(c.Request().Context(), key)
	if err != nil {
		return c.NoContent(statusFor(err))
	}
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}
	return c.NoContent(http.StatusOK)
}

type SizeResponse struct {
	Size int64 `json:"size"`
}

func (h *Handler) Size(c echo.Context) error {
	key, err := h.bindKey(c)
	if err != nil {
		return fail(c, err)
	}

	size, err := h.svc.Size(c.Request().Context(), key)
	if err != nil {
		return fail(c, err)
	}
	return response.FromDTO(c.Response(), http.StatusOK, SizeResponse{Size: size})
}

func (h *Handler) Download(c echo.Context) error {
	key, err := h.bindKey(c)
	if err != nil {
		return fail(c, err)
	}

	file, body, err := h.svc.Open(c.Request().Context(), key)
	if err != nil {
		return fail(c, err)
	}
	defer body.Close()

	return stream(c, file, body)
}

func (h *Handler) Shared(c echo.Context) error {
	file, body, err := h.svc.OpenLink(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	defer body.Close()

	if file.OriginalFilename.Valid {
		c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+strconv.Quote(file.OriginalFilename.String))
	}
	return stream(c, file, body)
}

func stream(c echo.Context, file db.File, body io.Reader) error {
	header := c.Response().Header()
	header.Set(echo.HeaderContentType, file.ContentType)
	header.Set(echo.HeaderContentLength, strconv.FormatInt(file.Size, 10))
	header.Set("ETag", strconv.Quote(file.Hash))
	c.Response().WriteHeader(http.StatusOK)

	_, err := io.Copy(c.Response(), body)
	return err
}

func (h *Handler) Delete(c echo.Context) error {
	key, err := h.bindKey(c)
	if err != nil {
		return fail(c, err)
	}

	if err := h.svc.Delete(c.Request().Context(), key); err != nil {
		return fail(c, err)
	}
	return response.FromMessage(c.Response(), http.StatusOK, "deleted")
}
