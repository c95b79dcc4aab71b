package publication

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"paperhub/internal/artifact"
)

type Handler struct {
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.create)                    // POST   /publications
	rg.GET("", h.list)                       // GET    /publications
	rg.GET("/special-issues", h.specialIssues)
	rg.GET("/years", h.years)
	rg.GET("/volumes", h.volumes)
	rg.GET("/:id", h.getByID)
	rg.PUT("/:id", h.update)
	rg.DELETE("/:id", h.remove)
	rg.GET("/:id/pdf", h.viewPDF)            // inline disposition
	rg.GET("/:id/pdf/download", h.downloadPDF)
}

func (h *Handler) create(c *gin.Context) {
	in := CreateInput{
		Volume:         c.PostForm("volume"),
		Title:          c.PostForm("title"),
		Content:        c.PostForm("content"),
		Author:         c.PostForm("author"),
		DOI:            c.PostForm("doi"),
		IsSpecialIssue: c.PostForm("isSpecialIssue") == "true",
	}

	var err error
	if in.Year, err = requireIntField(c, "year"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if in.Issue, err = requireIntField(c, "issue"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pdf, contentType, err := readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pdf upload required"})
		return
	}
	in.PDF = pdf
	in.PDFContentType = contentType

	rec, err := h.Service.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) update(c *gin.Context) {
	var in UpdateInput

	if v, ok := c.GetPostForm("year"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be an integer"})
			return
		}
		in.Fields.Year = &n
	}
	if v, ok := c.GetPostForm("issue"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "issue must be an integer"})
			return
		}
		in.Fields.Issue = &n
	}
	if v, ok := c.GetPostForm("volume"); ok {
		in.Fields.Volume = &v
	}
	if v, ok := c.GetPostForm("title"); ok {
		in.Fields.Title = &v
	}
	if v, ok := c.GetPostForm("content"); ok {
		in.Fields.Content = &v
	}
	if v, ok := c.GetPostForm("author"); ok {
		in.Fields.Author = &v
	}
	if v, ok := c.GetPostForm("doi"); ok {
		in.Fields.DOI = &v // empty value is an explicit clear
	}
	// only the literals flip the flag; anything else leaves it unchanged
	if v, ok := c.GetPostForm("isSpecialIssue"); ok {
		switch v {
		case "true":
			t := true
			in.Fields.IsSpecialIssue = &t
		case "false":
			f := false
			in.Fields.IsSpecialIssue = &f
		}
	}

	pdf, contentType, err := readUpload(c)
	if err == nil {
		in.PDF = pdf
		in.PDFContentType = contentType
	}

	rec, err := h.Service.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) remove(c *gin.Context) {
	rec, err := h.Service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": rec.ID})
}

func (h *Handler) getByID(c *gin.Context) {
	rec, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) list(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.Service.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(items), "items": items})
}

func (h *Handler) specialIssues(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.Service.SpecialIssues(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(items), "items": items})
}

func (h *Handler) years(c *gin.Context) {
	years, err := h.Service.Years(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if years == nil {
		years = []int{}
	}
	c.JSON(http.StatusOK, gin.H{"years": years})
}

func (h *Handler) volumes(c *gin.Context) {
	raw := c.Query("year")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year is required"})
		return
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year must be an integer"})
		return
	}

	volumes, err := h.Service.Volumes(c.Request.Context(), year)
	if err != nil {
		writeError(c, err)
		return
	}
	if volumes == nil {
		volumes = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"volumes": volumes})
}

func (h *Handler) viewPDF(c *gin.Context) {
	h.streamPDF(c, false)
}

func (h *Handler) downloadPDF(c *gin.Context) {
	h.streamPDF(c, true)
}

func (h *Handler) streamPDF(c *gin.Context, attachment bool) {
	payload, err := h.Service.Artifact(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	if attachment {
		c.Header("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", suggestedFilename(payload.Title)))
	} else {
		c.Header("Content-Disposition", "inline")
	}
	c.Data(http.StatusOK, payload.ContentType, payload.Data)
}

// parseFilter builds the conjunction from the recognized query params.
// Absent params impose no constraint; isSpecialIssue is true only for
// the literal "true".
func parseFilter(c *gin.Context) (Filter, error) {
	var f Filter

	if raw := c.Query("year"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return f, fmt.Errorf("year must be an integer")
		}
		f.Year = &n
	}
	if raw := c.Query("issue"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return f, fmt.Errorf("issue must be an integer")
		}
		f.Issue = &n
	}
	if v := c.Query("volume"); v != "" {
		f.Volume = &v
	}
	if v := c.Query("doi"); v != "" {
		f.DOI = &v
	}
	if v := c.Query("isSpecialIssue"); v != "" {
		b := v == "true"
		f.SpecialIssue = &b
	}
	return f, nil
}

func requireIntField(c *gin.Context, name string) (int, error) {
	raw, ok := c.GetPostForm(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

// readUpload pulls the "pdf" form file and its declared content type.
func readUpload(c *gin.Context) ([]byte, string, error) {
	fh, err := c.FormFile("pdf")
	if err != nil {
		return nil, "", err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return data, uploadContentType(fh), nil
}

func uploadContentType(fh *multipart.FileHeader) string {
	ct := fh.Header.Get("Content-Type")
	// strip any charset suffix a client tacked on
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

// suggestedFilename derives a safe download name from the record title.
func suggestedFilename(title string) string {
	name := strings.TrimSpace(title)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if name == "" {
		name = "publication"
	}
	return name + ".pdf"
}

// writeError maps the error taxonomy onto status codes.
func writeError(c *gin.Context, err error) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Msg})
	case errors.Is(err, ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, artifact.ErrUnsupportedMedia):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	case errors.Is(err, artifact.ErrStoreFailed), errors.Is(err, artifact.ErrRetrieveFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "artifact backend failure"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
