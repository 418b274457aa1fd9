package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	u "net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zubairAhmed777/yt-downldr/internal/fetch"
	"github.com/zubairAhmed777/yt-downldr/internal/utils"
)

// DownloadRequest is the body of POST /download.
type DownloadRequest struct {
	URL string `json:"url"`
}

// PredictRequest is the gradio-shaped body of POST /api/predict/download.
// The URL may arrive as the first element of `data` or as `url`.
type PredictRequest struct {
	Data []string `json:"data"`
	URL  string   `json:"url"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// handleDiag probes DNS and TCP reachability of the upstream site from
// inside the container.
func (s *Server) handleDiag(c *gin.Context) {
	info := gin.H{}
	addrs, err := net.LookupHost("www.youtube.com")
	if err != nil {
		info["error"] = err.Error()
		c.JSON(http.StatusOK, info)
		return
	}
	info["addrs"] = addrs
	conn, err := net.DialTimeout("tcp", "www.youtube.com:443", 3*time.Second)
	if err != nil {
		info["error"] = err.Error()
	} else {
		conn.Close()
		info["tcp443"] = "ok"
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleDownload(c *gin.Context) {
	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	s.download(c, req.URL)
}

func (s *Server) handleDownloadQuery(c *gin.Context) {
	s.download(c, c.Query("url"))
}

func (s *Server) download(c *gin.Context, url string) {
	url = strings.TrimSpace(url)
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No URL provided"})
		return
	}
	artifact, err := s.fetcher.Fetch(c.Request.Context(), url)
	if err != nil {
		s.logger.Error().Err(err).Msgf("Download failed for %s", url)
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	s.logger.Info().Msgf("Downloaded '%s' (%s) to %s", artifact.Title, utils.FormatBytes(uint64(artifact.Size)), artifact.Path)
	c.JSON(http.StatusOK, gin.H{
		"title":      artifact.Title,
		"file":       artifact.Path,
		"public_url": fileRef(artifact.Path),
		"status":     "Downloaded successfully",
	})
}

func (s *Server) handlePredictDownload(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad payload. Use {data:[<url>]} or {url:<url>}", "data": []any{}})
		return
	}
	url := ""
	if len(req.Data) > 0 {
		url = req.Data[0]
	}
	if url == "" {
		url = req.URL
	}
	url = strings.TrimSpace(url)
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bad payload. Use {data:[<url>]} or {url:<url>}", "data": []any{}})
		return
	}
	artifact, err := s.fetcher.Fetch(c.Request.Context(), url)
	if err != nil {
		s.logger.Error().Err(err).Msgf("Download failed for %s", url)
		c.JSON(statusForError(err), gin.H{
			"error": err.Error(),
			"data":  []any{nil, fmt.Sprintf("Error: %s", err.Error())},
		})
		return
	}
	s.logger.Info().Msgf("Downloaded '%s' (%s) to %s", artifact.Title, utils.FormatBytes(uint64(artifact.Size)), artifact.Path)
	info := gin.H{
		"name": filepath.Base(artifact.Path),
		"path": artifact.Path,
		"url":  fileRef(artifact.Path),
	}
	c.JSON(http.StatusOK, gin.H{
		"data": []any{
			info,
			fmt.Sprintf("Downloaded '%s' successfully!", artifact.Title),
			fileRef(artifact.Path),
		},
	})
}

// handleFile serves an artifact, refusing anything outside the download
// directory.
func (s *Server) handleFile(c *gin.Context) {
	s.serveArtifact(c, c.Param("path"))
}

// handleLegacyFile keeps the old /file=<path> form working for clients
// that still follow references from earlier responses.
func (s *Server) handleLegacyFile(c *gin.Context) {
	path := c.Request.URL.Path
	if !strings.HasPrefix(path, "/file=") {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	s.serveArtifact(c, strings.TrimPrefix(path, "/file="))
}

func (s *Server) serveArtifact(c *gin.Context, path string) {
	if path == "" || path == "/" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file path"})
		return
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid path"})
		return
	}
	absDir, err := filepath.Abs(s.cfg.DownloadDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid download directory"})
		return
	}
	if absPath != absDir && !strings.HasPrefix(absPath, absDir+string(filepath.Separator)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden path"})
		return
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	c.FileAttachment(absPath, filepath.Base(absPath))
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, fetch.ErrInvalidURL):
		return http.StatusBadRequest
	case fetch.IsUnavailable(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fileRef(path string) string {
	ref := u.URL{Path: "/file" + path}
	return ref.EscapedPath()
}
