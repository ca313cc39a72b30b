// internal/app/features/users/import.go
package users

import (
	"errors"
	"net/http"

	httperr "github.com/dalemusser/votehub/internal/app/features/errors"
	"github.com/dalemusser/votehub/internal/app/system/csvutil"
	"github.com/dalemusser/votehub/internal/app/system/timeouts"
	"github.com/dalemusser/votehub/internal/domain/models"
)

type importResponse struct {
	Inserted int           `json:"inserted"`
	Users    []models.User `json:"users"`
}

// HandleImport handles POST /users/import: a multipart upload whose "file"
// field is a voter CSV. The whole file is inserted or nothing is.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)

	file, _, err := r.FormFile(csvutil.MultipartField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httperr.Write(w, http.StatusRequestEntityTooLarge, "csv file is too large; maximum size is 5 MB")
			return
		}
		httperr.Write(w, http.StatusBadRequest, "csv file is required in form field \""+csvutil.MultipartField+"\"")
		return
	}
	defer file.Close()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "voter csv import")
	defer cancel()

	inserted, err := h.Users.BulkData(ctx, file)
	if err != nil {
		h.writeError(w, "csv import", err)
		return
	}

	h.Audit.UsersImported(ctx, r, len(inserted))
	httperr.WriteJSON(w, http.StatusCreated, importResponse{Inserted: len(inserted), Users: inserted})
}
