package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tuition/internal/auth"
	"tuition/internal/fees"
	"tuition/internal/photo"
	"tuition/internal/student"
)

// Handler serves the JSON API the touch UI talks to.
type Handler struct {
	students *student.Service
	issuer   *auth.Issuer
	photos   photo.Uploader // nil disables uploads
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a handler.
func New(students *student.Service, issuer *auth.Issuer, photos photo.Uploader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{students: students, issuer: issuer, photos: photos, logger: logger, now: time.Now}
}

// Routes mounts the /v1 API on r.
func (h *Handler) Routes(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.POST("/sessions", h.Login)
	v1.POST("/sessions/refresh", h.Refresh)

	st := v1.Group("/students", auth.Required(h.issuer))
	st.GET("", h.ListStudents)
	st.POST("", h.CreateStudent)
	st.GET("/:id", h.StudentDetail)
	st.GET("/:id/form", h.EditForm)
	st.PUT("/:id", h.UpdateStudent)
	st.DELETE("/:id", h.DeleteStudent)
	st.PUT("/:id/attendance/:date", h.MarkAttendance)
	st.PUT("/:id/fees/:month", h.SetFee)
	st.GET("/:id/fees", h.FeeHistory)
	st.POST("/:id/photo", h.UploadPhoto)
}

// fail maps service errors to status codes. Storage failures are logged and
// reported as unavailable so the screen can keep its last state.
func (h *Handler) fail(c *gin.Context, err error) {
	var ve *student.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
	case errors.Is(err, student.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
	case errors.Is(err, student.ErrStorageUnavailable):
		h.logger.Error("storage unavailable", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
	default:
		h.logger.Error("request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type loginRequest struct {
	Passcode string `json:"passcode" binding:"required"`
	DeviceID string `json:"device_id"`
}

// Login exchanges the operator passcode for tokens.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	subject := req.DeviceID
	if subject == "" {
		subject = "operator"
	}
	pair, err := h.issuer.Login(subject, req.Passcode)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid passcode"})
		return
	}
	c.JSON(http.StatusCreated, pair)
}

// Refresh rotates a refresh token.
func (h *Handler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pair, err := h.issuer.Refresh(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) ListStudents(c *gin.Context) {
	list, err := h.students.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateStudent(c *gin.Context) {
	var form student.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := h.students.Create(c.Request.Context(), form)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) UpdateStudent(c *gin.Context) {
	var form student.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := h.students.Update(c.Request.Context(), c.Param("id"), form)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) DeleteStudent(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) StudentDetail(c *gin.Context) {
	d, err := h.students.Detail(c.Request.Context(), c.Param("id"), h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) EditForm(c *gin.Context) {
	f, err := h.students.EditForm(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) MarkAttendance(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	if err := h.students.MarkAttendance(ctx, id, c.Param("date"), req.Status); err != nil {
		h.fail(c, err)
		return
	}
	// the calendar is rebuilt after every mark
	d, err := h.students.Detail(ctx, id, h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d.Calendar)
}

// SetFee sets the paid flag; month "current" means this month.
func (h *Handler) SetFee(c *gin.Context) {
	var req struct {
		Paid *bool `json:"paid" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	month := c.Param("month")
	if month == "current" {
		month = fees.MonthKey(h.now())
	}
	st, err := h.students.SetFeePaid(c.Request.Context(), c.Param("id"), month, *req.Paid)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) FeeHistory(c *gin.Context) {
	entries, err := h.students.PaymentHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) UploadPhoto(c *gin.Context) {
	if h.photos == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "photo storage not configured"})
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := h.students.Get(ctx, id); err != nil {
		h.fail(c, err)
		return
	}
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	defer file.Close()

	ref, err := h.photos.Upload(ctx, file, header.Filename)
	if errors.Is(err, photo.ErrUnsupportedType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("photo upload failed", "student", id, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "photo upload failed"})
		return
	}
	if err := h.students.SetPhoto(ctx, id, ref); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo_path": ref})
}
