package webutil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// RespondWithJSON marshals payload and writes it with the given status.
func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		w.Header().Set(HeaderContentType, ContentTypeJSONUTF8)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal Server Error"}`))
		return
	}

	w.Header().Set(HeaderContentType, ContentTypeJSONUTF8)
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// RespondWithError writes the standard {"error": message} body.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	if code == http.StatusUnauthorized {
		w.Header().Set(HeaderWWWAuthenticate, AuthSchemeBearer)
	}
	RespondWithJSON(w, code, map[string]string{"error": message})
}
