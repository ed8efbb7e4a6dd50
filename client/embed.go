// Package client embeds the browser script that drives the live form.
package client

import (
	"embed"
	"io/fs"
	"net/http"
)

// ScriptName is the file name the page loads.
const ScriptName = "regform.js"

//go:embed src/*.js
var assets embed.FS

// Assets returns the embedded filesystem rooted at the script directory.
func Assets() fs.FS {
	fsys, err := fs.Sub(assets, "src")
	if err != nil {
		panic(err)
	}
	return fsys
}

// Handler serves the embedded assets.
func Handler() http.Handler {
	return http.FileServer(http.FS(Assets()))
}
