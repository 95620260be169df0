package views

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed templates static
var viewsFS embed.FS

// StaticHandler serves the embedded stylesheet under prefix.
func StaticHandler(prefix string) http.Handler {
	sub, err := fs.Sub(viewsFS, "static")
	if err != nil {
		// static is part of the embed pattern above, so Sub cannot fail.
		panic(err)
	}
	return http.StripPrefix(prefix, http.FileServer(http.FS(sub)))
}
