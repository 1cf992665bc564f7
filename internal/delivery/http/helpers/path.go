package helpers

import (
	"net/http"

	"github.com/google/uuid"
)

// PathUUID reads the named path value and checks it is a UUID. On failure it
// writes a 400 and returns false.
func PathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.PathValue(name)
	if v == "" {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, "missing "+name)
		return "", false
	}
	if _, err := uuid.Parse(v); err != nil {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a UUID")
		return "", false
	}
	return v, true
}
