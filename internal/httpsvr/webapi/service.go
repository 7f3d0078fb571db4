package webapi

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mediascribe-server-go/internal/app/services"
	"mediascribe-server-go/internal/platform/errors"
	"mediascribe-server-go/internal/platform/logging"
)

// Service is the HTTP transport over the transcription application service.
type Service struct {
	app       *services.Transcription
	uploadDir string
	logger    *logging.Logger
}

func NewService(app *services.Transcription, uploadDir string, logger *logging.Logger) (*Service, error) {
	if app == nil {
		return nil, errors.New(errors.KindTransport, "webapi.new", "application service is required")
	}
	if uploadDir == "" {
		uploadDir = filepath.Join(os.TempDir(), "mediascribe-uploads")
	}
	return &Service{app: app, uploadDir: uploadDir, logger: logger}, nil
}

// Register mounts the speech, translate and system routes.
func (s *Service) Register(api *gin.RouterGroup) {
	speech := api.Group("/speech")
	speech.POST("/stream/start", s.handleStreamStart)
	speech.POST("/stream/:id/stop", s.handleStreamStop)
	speech.GET("/stream/:id/status", s.handleStreamStatus)
	speech.GET("/stream/:id/result", s.handleStreamResult)
	speech.DELETE("/stream/:id", s.handleStreamDelete)
	speech.GET("/streams", s.handleStreamList)
	speech.POST("/transcribe", s.handleTranscribe)
	speech.GET("/transcripts/:id", s.handleTranscriptGet)

	api.POST("/translate", s.handleTranslate)
	api.GET("/system", s.handleSystem)
}

// resolveSource picks the media source from a multipart upload or a server
// side path. Uploaded files are parked under uploadDir and owned by the
// caller of the returned cleanup.
func (s *Service) resolveSource(c *gin.Context, pathField string) (source string, cleanup func(), err error) {
	cleanup = func() {}

	if file, ferr := c.FormFile("file"); ferr == nil {
		if merr := os.MkdirAll(s.uploadDir, 0o755); merr != nil {
			return "", cleanup, merr
		}
		dst := filepath.Join(s.uploadDir, uuid.NewString()+filepath.Ext(file.Filename))
		if serr := c.SaveUploadedFile(file, dst); serr != nil {
			return "", cleanup, serr
		}
		return dst, func() { _ = os.Remove(dst) }, nil
	}

	if pathField != "" {
		return pathField, cleanup, nil
	}
	return "", cleanup, errors.New(errors.KindTransport, "webapi.source", "no file upload or path provided")
}
