package handler

import (
	"net/http"

	"github.com/nitromap/nitromap/internal/api/response"
	"github.com/nitromap/nitromap/internal/api/web"
)

// IndexHandler serves the landing page. The page is rendered once.
type IndexHandler struct {
	body []byte
}

// NewIndexHandler renders the landing page for version.
func NewIndexHandler(version string) (*IndexHandler, error) {
	body, err := web.RenderIndex(web.NewPage(version))
	if err != nil {
		return nil, err
	}
	return &IndexHandler{body: body}, nil
}

// Index handles GET /.
func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Security-Policy", web.ContentSecurityPolicy)
	response.Raw(w, r, http.StatusOK, response.ContentTypeHTML, h.body)
}
