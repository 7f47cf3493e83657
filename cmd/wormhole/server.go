package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/wormhole-core/wormhole/internal/rendezvousserver"
	"github.com/wormhole-core/wormhole/internal/wlog"
)

// server runs the rendezvous broker in-process, for trying the send/receive
// subcommands against a local server without a separate wormhole-server
// binary.
func server(args ...string) {
	set := flag.NewFlagSet(args[0], flag.ExitOnError)
	set.Usage = func() {
		fmt.Fprintf(set.Output(), "run the rendezvous server\n\n")
		fmt.Fprintf(set.Output(), "usage: %s %s\n\n", os.Args[0], args[0])
		fmt.Fprintf(set.Output(), "flags:\n")
		set.PrintDefaults()
	}
	httpaddr := set.String("http", ":4000", "http listen address")
	set.Parse(args[1:])

	log.Fatal(rendezvousserver.ListenAndServe(rendezvousserver.Options{
		HTTPAddr: *httpaddr,
		LogLevel: wlog.LevelInfo,
	}))
}
