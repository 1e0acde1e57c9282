package main

import (
	"fmt"
	"os"

	"github.com/juruen/inkrec/config"
	"github.com/juruen/inkrec/inference/tflite"
	"github.com/juruen/inkrec/log"
	"github.com/juruen/inkrec/recognizer"
	"github.com/juruen/inkrec/server"
	"github.com/juruen/inkrec/shell"
	flag "github.com/ogier/pflag"
)

func main() {
	serverMode := flag.BoolP("server", "s", false, "serve the HTTP API instead of the shell")
	configPath := flag.StringP("config", "c", "", "config file (default $INKREC_CONFIG or the user config dir)")
	addr := flag.String("addr", "", "listen address in server mode")
	flag.Parse()

	log.InitLog()

	path := *configPath
	if path == "" {
		var err error
		if path, err = config.ConfigPath(); err != nil {
			log.Error.Fatalln(err)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Error.Fatalln(err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	engine := tflite.Engine{Threads: cfg.Threads}
	session := recognizer.NewSession(recognizer.OptionsFromConfig(cfg, engine), cfg.StrokePen())
	defer session.Close()

	if *serverMode {
		runServerMode(session, cfg)
		return
	}

	err = shell.RunShell(&shell.ShellCtxt{Session: session, Config: cfg}, flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: ", err)
		session.Close()
		os.Exit(1)
	}
}

func runServerMode(session *recognizer.Session, cfg config.Config) {
	if cfg.JWTSecret == "" {
		log.Warning.Println("no jwt_secret configured, the API is unauthenticated")
	}
	if err := server.NewApiServer(session, cfg).ListenAndServe(); err != nil {
		log.Error.Fatalf("Server failed: %v", err)
	}
}
