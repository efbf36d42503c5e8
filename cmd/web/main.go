package main

import (
	"log"

	"github.com/arogoat/dubmaster-server/internal/server"
)

func main() {
	if err := server.Run(); err != nil {
		log.Fatal(err.Error())
	}
}
