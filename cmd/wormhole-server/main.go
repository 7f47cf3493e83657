// Command wormhole-server runs the rendezvous server standalone: the
// nameplate/mailbox broker core.Rendezvous's client half talks to. Adapted
// from the teacher's cmd/ww/server.go flag surface; the broker logic itself
// lives in internal/rendezvousserver so cmd/wormhole's "server" subcommand
// can launch the same thing in-process for local testing.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/wormhole-core/wormhole/internal/rendezvousserver"
	"github.com/wormhole-core/wormhole/internal/wlog"
)

func main() {
	httpaddr := flag.String("http", ":http", "http listen address")
	httpsaddr := flag.String("https", "", "https listen address, empty to disable TLS")
	whitelist := flag.String("hosts", "", "comma separated list of hosts for which to request let's encrypt certs")
	secretpath := flag.String("secrets", os.Getenv("HOME")+"/keys", "path to put let's encrypt cache")
	html := flag.String("ui", "./web", "path to static files to serve over /, empty to disable")
	verbose := flag.Bool("v", false, "log connections and traffic, not just errors")
	flag.Parse()

	level := wlog.LevelError
	if *verbose {
		level = wlog.LevelInfo
	}

	log.Fatal(rendezvousserver.ListenAndServe(rendezvousserver.Options{
		HTTPAddr:  *httpaddr,
		HTTPSAddr: *httpsaddr,
		Hosts:     *whitelist,
		CertCache: *secretpath,
		StaticDir: *html,
		LogLevel:  level,
	}))
}
