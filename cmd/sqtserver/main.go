// Command sqtserver runs the sequitur debug/introspection HTTP server: a
// small read/append API over a single in-memory grammar instance, intended
// for exploring how a grammar grows as bytes are appended to it rather than
// for production use.
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/dekarrin/sequitur/internal/version"
	"github.com/dekarrin/sequitur/server"
)

const (
	ExitSuccess = iota
	ExitInitError
	ExitServeError
)

var (
	flagVersion    = pflag.BoolP("version", "v", false, "Print the version and exit")
	flagConfig     = pflag.StringP("config", "c", "sqtserver.toml", "Path to the TOML config file")
	flagIssueToken = pflag.String("issue-token", "", "Print a bearer token for the given admin secret and exit")
)

func main() {
	returnCode := ExitSuccess
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n", r)
			returnCode = ExitServeError
		}
		os.Exit(returnCode)
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("sqtserver v%s\n", version.Current)
		return
	}

	cfg, err := server.LoadConfig(*flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		returnCode = ExitInitError
		return
	}

	srv, err := server.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not start server: %v\n", err)
		returnCode = ExitInitError
		return
	}

	if *flagIssueToken != "" {
		tok, err := srv.IssueToken(*flagIssueToken)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not issue token: %v\n", err)
			returnCode = ExitInitError
			return
		}
		fmt.Println(tok)
		return
	}

	log.Printf("sqtserver v%s listening on %s", version.Current, cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, srv); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		returnCode = ExitServeError
	}
}
