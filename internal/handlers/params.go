package handlers

import "net/http"

// getParam reads a path segment captured by pat, which adds it to the query as ":name".
func getParam(r *http.Request, name string) string {
	return r.URL.Query().Get(":" + name)
}
