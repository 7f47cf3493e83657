package rendezvousserver

import (
	"crypto/tls"
	"net/http"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/acme/autocert"

	"github.com/wormhole-core/wormhole/internal/wlog"
)

// Options configures ListenAndServe's HTTP(S) listeners.
type Options struct {
	HTTPAddr  string // e.g. ":http"; empty listens on ":http", as net/http does
	HTTPSAddr string // e.g. ":https"; empty disables TLS entirely
	Hosts     string // comma separated autocert whitelist, required if HTTPSAddr is set
	CertCache string // autocert.DirCache path
	StaticDir string // served at "/"; empty serves 404s for non-websocket requests
	LogLevel  wlog.Level
}

func mux(h *Hub, staticDir string) http.Handler {
	fs := http.Handler(http.NotFoundHandler())
	if staticDir != "" {
		fs = gziphandler.GzipHandler(http.FileServer(http.Dir(staticDir)))
	}
	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.Handler())
	m.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			h.Handler(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
	return m
}

// ListenAndServe runs the broker's HTTP(S) listeners until one fails; it
// does not return on success, matching the teacher's own server() which
// blocks the calling goroutine in log.Fatal(srv.ListenAndServe()).
func ListenAndServe(opts Options) error {
	h := New(opts.LogLevel)
	handler := mux(h, opts.StaticDir)

	srv := &http.Server{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Minute,
		IdleTimeout:  20 * time.Second,
		Addr:         opts.HTTPAddr,
		Handler:      handler,
	}

	if opts.HTTPSAddr == "" {
		return srv.ListenAndServe()
	}

	m := &autocert.Manager{
		Cache:      autocert.DirCache(opts.CertCache),
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(strings.Split(opts.Hosts, ",")...),
	}
	ssrv := &http.Server{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Minute,
		IdleTimeout:  20 * time.Second,
		Addr:         opts.HTTPSAddr,
		Handler:      handler,
		TLSConfig:    &tls.Config{GetCertificate: m.GetCertificate},
	}
	// The plain listener only serves ACME HTTP-01 challenges and redirects
	// everything else to https, same as the teacher's m.HTTPHandler(nil) use.
	srv.Handler = m.HTTPHandler(nil)
	errc := make(chan error, 2)
	go func() { errc <- ssrv.ListenAndServeTLS("", "") }()
	go func() { errc <- srv.ListenAndServe() }()
	return <-errc
}
