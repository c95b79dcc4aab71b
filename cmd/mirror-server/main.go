package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"paperhub/internal/artifact"
)

// mirror-server is a standalone artifact peer: a file-backed store behind
// the /internal/artifacts endpoints, the target for instances running
// PAPERHUB_ARTIFACT_BACKEND=remote.
func main() {
	var (
		addr = flag.String("addr", ":9000", "listen address")
		dir  = flag.String("dir", "data/mirror-artifacts", "artifact storage directory")
	)
	flag.Parse()

	backend, err := artifact.NewFileBackend(*dir)
	if err != nil {
		log.Fatalf("file backend: %v", err)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "dir": *dir})
	})

	peer := artifact.NewPeer(backend)
	peer.RegisterRoutes(router.Group("/internal"))

	log.Printf("mirror-server listening on %s (artifacts in %s)", *addr, *dir)
	log.Fatal(router.Run(*addr))
}
