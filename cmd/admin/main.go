package main

import (
	"log"

	"github.com/aussiebroadwan/scripthub/internal/admin/app"
)

//go:generate swag init -g router.go -d ../../internal/admin/http,../../pkg/adminsdk -o ../../api/admin --outputTypes go

func main() {
	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
