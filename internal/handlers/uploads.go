package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelierlabs/atelier/internal/storage"
	apperrors "github.com/atelierlabs/atelier/pkg/errors"
	"github.com/atelierlabs/atelier/pkg/response"
)

var errStorageDisabled = apperrors.New("STORAGE_DISABLED", "Object storage is not configured", http.StatusServiceUnavailable)

// POST /api/studio/uploads
//
// Accepts a multipart form with an "image" file field and returns the stored
// object URLs. The client attaches the returned URLs to a gallery item.
func (h *StudioHandler) Upload(c *gin.Context) {
	if h.uploads == nil {
		response.Error(c, errStorageDisabled)
		return
	}

	portfolio, ok := h.portfolioFor(c)
	if !ok {
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		response.Error(c, apperrors.NewBadRequest("an image file is required"))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, apperrors.NewBadRequest("unable to read the uploaded file"))
		return
	}
	defer file.Close()

	result, err := h.uploads.Upload(requestContext(c), storage.UploadInput{
		PortfolioID: portfolio.ID,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}
