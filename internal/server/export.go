package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	exportdomain "github.com/elimisha-app/elimisha/internal/export/domain"
)

func (s *Server) ExportHistory(c *gin.Context) {
	user := currentUser(c)

	export, err := s.exportSvc.HistoryCSV(c.Request.Context(), int64(user.ID))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	writeExport(c, export)
}

func (s *Server) ExportProgress(c *gin.Context) {
	user := currentUser(c)

	export, err := s.exportSvc.ProgressCSV(c.Request.Context(), int64(user.ID))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	writeExport(c, export)
}

func (s *Server) ExportFullReport(c *gin.Context) {
	user := currentUser(c)

	export, err := s.exportSvc.FullReportCSV(c.Request.Context(), user)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	writeExport(c, export)
}

func writeExport(c *gin.Context, export *exportdomain.Export) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, export.ContentType, export.Data)
}
