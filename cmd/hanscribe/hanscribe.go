package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/akamensky/argparse"
	"github.com/hanscribe/hanscribe/server"
)

func main() {
	parser := argparse.NewParser("hanscribe", "Dataset service for Han-Nom annotation")
	configFilePath := parser.String("c", "config", &argparse.Options{Help: "Config file path", Default: "hanscribe.json"})
	port := parser.String("p", "port", &argparse.Options{Help: "HTTP listen address", Default: ":8081"})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	s, err := server.NewServer(*configFilePath)
	if err != nil {
		panic(err)
	}
	s.ListenForKillSignals()
	if err := s.ListenHTTP(*port); err != nil && err != http.ErrServerClosed {
		fmt.Printf("%v\n", err)
	}
}
