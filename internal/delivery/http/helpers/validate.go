package helpers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Validator is implemented by request bodies that validate themselves.
// Validate returns a list of human-readable error messages, empty when valid.
type Validator interface {
	Validate() []string
}

// DecodeAndValidate decodes the JSON request body into dst and runs its
// validation. On malformed JSON or validation failure it writes a 400
// envelope and returns false; the caller should return immediately.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst Validator) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return false
	}
	if errs := dst.Validate(); len(errs) > 0 {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, strings.Join(errs, "; "))
		return false
	}
	return true
}
