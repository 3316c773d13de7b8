package main

import (
	"log"

	"github.com/UpperPublicidade/upperchat-go/internal/application/startup"
	"github.com/UpperPublicidade/upperchat-go/internal/infrastructure/whatsapp"
)

func main() {
	// Engine bindings are linked at build time; the offline client keeps the
	// bridge surface available without one.
	client := whatsapp.NewOffline()

	if err := startup.Initialize(client); err != nil {
		log.Fatalf("Application startup failed: %v", err)
	}

	log.Println("Application has shut down gracefully.")
}
