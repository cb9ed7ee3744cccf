package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "time/tzdata"
)

var server srv

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Cannot load .env file: %v", err)
	}

	server.loadApp()
	err := server.app.Run(os.Args)
	server.shutdown()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}
