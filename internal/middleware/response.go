package middleware

import (
	"net/http"

	"github.com/telewarm/warmup-engine-go/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}
