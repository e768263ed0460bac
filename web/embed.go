// Package web embeds the built review UI (dist/) and injects the plan
// under review into it. The bundle is self-contained: one HTML file
// plus any static assets, served by the session server.
package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed all:dist
var distFS embed.FS

// placeholder is the injection point inside dist/index.html. The
// server replaces it with the boot payload before serving.
const placeholder = "window.__PLANNOTATOR__ = null;"

// BootPayload is what the UI needs before first render.
type BootPayload struct {
	Plan   string `json:"plan"`
	Origin string `json:"origin"`
}

// Index returns dist/index.html with the boot payload injected in
// place of the placeholder assignment.
func Index(payload BootPayload) ([]byte, error) {
	raw, err := distFS.ReadFile("dist/index.html")
	if err != nil {
		return nil, fmt.Errorf("read embedded index: %w", err)
	}

	// json.Marshal HTML-escapes < and > by default, so a plan containing
	// </script> cannot terminate the inline script early.
	boot, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal boot payload: %w", err)
	}

	html := strings.Replace(string(raw), placeholder, "window.__PLANNOTATOR__ = "+string(boot)+";", 1)
	return []byte(html), nil
}

// AssetHandler serves the static files of the bundle (everything but
// the injected index, which the session server renders itself).
func AssetHandler() http.Handler {
	subFS, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}
	return http.FileServer(http.FS(subFS))
}
