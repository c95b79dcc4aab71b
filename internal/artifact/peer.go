package artifact

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"paperhub/pkg/models"
)

// Peer exposes a backend over HTTP so another instance can use it through
// RemoteBackend. Served by mirror-server, and by api-server in the file
// configuration so instances can chain.
type Peer struct {
	Backend Backend
}

func NewPeer(backend Backend) *Peer {
	return &Peer{Backend: backend}
}

func (p *Peer) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/artifacts", p.store)
	rg.GET("/artifacts/:id", p.retrieve)
	rg.DELETE("/artifacts/:id", p.release)
}

func (p *Peer) store(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body failed"})
		return
	}
	if err := CheckPayload(data, c.ContentType()); err != nil {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
		return
	}

	ref, err := p.Backend.Store(c.Request.Context(), data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": ref.Locator})
}

func (p *Peer) retrieve(c *gin.Context) {
	ref := models.ArtifactRef{Kind: p.Backend.Kind(), Locator: c.Param("id")}
	data, err := p.Backend.Retrieve(c.Request.Context(), ref)
	if err != nil {
		if errors.Is(err, ErrRetrieveFailed) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "retrieve failed"})
		return
	}
	c.Data(http.StatusOK, ContentTypePDF, data)
}

func (p *Peer) release(c *gin.Context) {
	ref := models.ArtifactRef{Kind: p.Backend.Kind(), Locator: c.Param("id")}
	if err := p.Backend.Release(c.Request.Context(), ref); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "release failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": c.Param("id")})
}
