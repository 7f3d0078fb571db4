package webapi

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"mediascribe-server-go/internal/domain/subtitle"
)

type streamStartRequest struct {
	Path string `form:"path" json:"path"`
}

func (s *Service) handleStreamStart(c *gin.Context) {
	var req streamStartRequest
	_ = c.ShouldBind(&req)

	source, cleanup, err := s.resolveSource(c, req.Path)
	if err != nil {
		RespondError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	// Uploaded sources stay on disk for the life of the stream; the delete
	// endpoint removes them together with the registry entry.
	_ = cleanup

	id, err := s.app.StartStream(source)
	if err != nil {
		RespondError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	RespondSuccess(c, http.StatusOK, gin.H{"task_id": id}, "stream started")
}

func (s *Service) handleStreamStop(c *gin.Context) {
	s.app.StopStream(c.Param("id"))
	RespondSuccess(c, http.StatusOK, nil, "stream stopped")
}

func (s *Service) handleStreamStatus(c *gin.Context) {
	snap, ok := s.app.StreamStatus(c.Param("id"))
	if !ok {
		RespondError(c, http.StatusNotFound, "unknown stream", nil)
		return
	}
	RespondSuccess(c, http.StatusOK, snap, "")
}

func (s *Service) handleStreamResult(c *gin.Context) {
	snap, ok := s.app.StreamResult(c.Param("id"))
	if !ok {
		RespondError(c, http.StatusNotFound, "unknown stream", nil)
		return
	}
	RespondSuccess(c, http.StatusOK, snap, "")
}

func (s *Service) handleStreamDelete(c *gin.Context) {
	id := c.Param("id")
	snap, known := s.app.StreamStatus(id)
	if !s.app.RemoveStream(id) {
		RespondError(c, http.StatusNotFound, "unknown stream", nil)
		return
	}
	if known && filepath.Dir(snap.Source) == s.uploadDir {
		_ = os.Remove(snap.Source)
	}
	RespondSuccess(c, http.StatusOK, nil, "stream removed")
}

func (s *Service) handleStreamList(c *gin.Context) {
	RespondSuccess(c, http.StatusOK, s.app.ListStreams(), "")
}

type transcribeRequest struct {
	Path           string `form:"path" json:"path"`
	SegmentMinutes int    `form:"segment_minutes" json:"segment_minutes"`
	Format         string `form:"format" json:"format"`
}

func (s *Service) handleTranscribe(c *gin.Context) {
	var req transcribeRequest
	_ = c.ShouldBind(&req)

	source, cleanup, err := s.resolveSource(c, req.Path)
	if err != nil {
		RespondError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	defer cleanup()

	rec, err := s.app.TranscribeFile(c.Request.Context(), source, req.SegmentMinutes)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	if req.Format == "srt" {
		c.Header("Content-Disposition", `attachment; filename="`+rec.TaskID+`.srt"`)
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(subtitle.RenderSRT(rec.Fragments)))
		return
	}
	RespondSuccess(c, http.StatusOK, rec, "transcription finished")
}

func (s *Service) handleTranscriptGet(c *gin.Context) {
	rec, err := s.app.GetTranscript(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusNotFound, err.Error(), nil)
		return
	}
	if c.Query("format") == "srt" {
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(subtitle.RenderSRT(rec.Fragments)))
		return
	}
	RespondSuccess(c, http.StatusOK, rec, "")
}

type translateRequest struct {
	Text   string `json:"text"`
	TaskID string `json:"task_id"`
}

func (s *Service) handleTranslate(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	switch {
	case req.TaskID != "":
		rec, err := s.app.GetTranscript(c.Request.Context(), req.TaskID)
		if err != nil {
			RespondError(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		fragments, err := s.app.TranslateFragments(c.Request.Context(), rec.Fragments)
		if err != nil {
			RespondError(c, http.StatusBadGateway, err.Error(), nil)
			return
		}
		RespondSuccess(c, http.StatusOK, gin.H{"task_id": rec.TaskID, "fragments": fragments}, "")
	case req.Text != "":
		translated, err := s.app.TranslateText(c.Request.Context(), req.Text)
		if err != nil {
			RespondError(c, http.StatusBadGateway, err.Error(), nil)
			return
		}
		RespondSuccess(c, http.StatusOK, gin.H{"translated": translated}, "")
	default:
		RespondError(c, http.StatusBadRequest, "text or task_id required", nil)
	}
}
