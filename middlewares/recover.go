package middleware

import (
	"fmt"
	"net/http"

	"github.com/globizora/api-service/utils"
)

// Recover turns a panicking handler into a generic 500 response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			utils.RespondInternal(w, fmt.Errorf("panic: %v", rec), r.Method+" "+r.URL.Path)
		}()

		next.ServeHTTP(w, r)
	})
}
