package web

import (
	"context"
	"encoding/json"
	"html/template"
	"image"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"goji.io"
	"goji.io/pat"

	"github.com/MissEmlizB/annotate-ml/internal/dataset"
	"github.com/MissEmlizB/annotate-ml/internal/imaging"
)

// DefaultAddr is where the explorer listens unless told otherwise.
const DefaultAddr = "127.0.0.1:8090"

const shutdownTimeout = 5 * time.Second

var galleryTemplate = template.Must(template.New("gallery").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Root}} - annotate-ml</title>
<style>
body { font-family: sans-serif; margin: 1em; background: #fafafa; }
.rows { display: flex; flex-wrap: wrap; gap: 1em; }
figure { margin: 0; background: #fff; padding: .5em; box-shadow: 0 1px 3px #0003; }
img { max-width: 320px; max-height: 240px; display: block; }
figcaption { font-size: .8em; margin-top: .3em; }
</style>
</head>
<body>
<h1>{{.Root}}</h1>
<p>{{len .Rows}} photos, {{.Annotations}} annotations</p>
<div class="rows">
{{range $i, $row := .Rows}}<figure>
<a href="rows/{{$i}}/image.png"><img src="rows/{{$i}}/{{if $row.ImageWithGroundTruth}}overlay{{else}}image{{end}}.png" alt="{{$row.Path}}" loading="lazy"></a>
<figcaption><a href="rows/{{$i}}">{{$row.Path}}</a> ({{len $row.Annotations}})</figcaption>
</figure>
{{end}}</div>
</body>
</html>
`))

type handler struct {
	ds *dataset.Dataset
}

// NewHandler returns the explorer's HTTP routes for ds:
//
//	GET /                        gallery of every row
//	GET /rows/:index             row metadata and annotations as JSON
//	GET /rows/:index/image.png   the photo
//	GET /rows/:index/overlay.png the photo with its ground truth drawn
func NewHandler(ds *dataset.Dataset) http.Handler {
	h := &handler{ds: ds}
	mux := goji.NewMux()
	mux.HandleFunc(pat.Get("/"), h.gallery)
	mux.HandleFunc(pat.Get("/rows/:index"), h.row)
	mux.HandleFunc(pat.Get("/rows/:index/image.png"), h.image)
	mux.HandleFunc(pat.Get("/rows/:index/overlay.png"), h.overlay)
	return mux
}

func (h *handler) lookup(w http.ResponseWriter, r *http.Request) (*dataset.Row, bool) {
	i, err := strconv.Atoi(pat.Param(r, "index"))
	if err != nil || i < 0 || i >= h.ds.Len() {
		http.NotFound(w, r)
		return nil, false
	}
	return &h.ds.Rows[i], true
}

func (h *handler) gallery(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Root        string
		Rows        []dataset.Row
		Annotations int
	}{h.ds.Root, h.ds.Rows, h.ds.AnnotationCount()}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := galleryTemplate.Execute(w, data); err != nil {
		log.Debug().Err(err).Msg("failed to render gallery")
	}
}

func (h *handler) row(w http.ResponseWriter, r *http.Request) {
	row, ok := h.lookup(w, r)
	if !ok {
		return
	}
	body := struct {
		Path        string               `json:"path"`
		Image       imaging.Info         `json:"image"`
		Annotations []dataset.Annotation `json:"annotations"`
	}{row.Path, row.Info, row.Annotations}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Debug().Err(err).Msg("failed to write row")
	}
}

func (h *handler) image(w http.ResponseWriter, r *http.Request) {
	row, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writePNG(w, row.Image)
}

func (h *handler) overlay(w http.ResponseWriter, r *http.Request) {
	row, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if row.ImageWithGroundTruth == nil {
		http.NotFound(w, r)
		return
	}
	writePNG(w, row.ImageWithGroundTruth)
}

func writePNG(w http.ResponseWriter, img image.Image) {
	if img == nil {
		http.Error(w, "row has no image", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := imaging.WritePNG(w, img); err != nil {
		log.Debug().Err(err).Msg("failed to write image")
	}
}

// Explorer serves a dataset gallery over HTTP.
type Explorer struct {
	// Addr is the listen address. Empty means DefaultAddr.
	Addr string

	// Open launches the platform's browser on the gallery.
	Open bool

	// Ready, if set, is called with the gallery URL once the listener is up.
	Ready func(url string)
}

// Explore implements toolkit.Explorer. It serves until ctx is cancelled.
func (e *Explorer) Explore(ctx context.Context, ds *dataset.Dataset) error {
	addr := e.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", addr)
	}

	srv := &http.Server{Handler: NewHandler(ds), ReadHeaderTimeout: 10 * time.Second}
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	url := "http://" + ln.Addr().String() + "/"
	log.Info().Str("url", url).Int("rows", ds.Len()).Msg("explorer running, press Ctrl+C to stop")
	if e.Ready != nil {
		e.Ready(url)
	}
	if e.Open {
		if err := openBrowser(url); err != nil {
			log.Warn().Err(err).Msg("failed to open browser")
		}
	}

	select {
	case err := <-served:
		return errors.Wrap(err, "explorer stopped")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to stop explorer")
	}
	return nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
