package i18n

import "net/http"

// Middleware stores the request's language preference in its context.
// A ?lang= query parameter wins over the Accept-Language header.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := r.URL.Query().Get("lang")
		if lang == "" {
			lang = r.Header.Get("Accept-Language")
		}
		if lang != "" {
			r = r.WithContext(WithLanguage(r.Context(), lang))
		}
		next.ServeHTTP(w, r)
	})
}
