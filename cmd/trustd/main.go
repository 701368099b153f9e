package main

import (
	"log"

	"go.inet256.org/trustd/pkg/trustcmd"
)

func main() {
	if err := trustcmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
