package main

import (
	"camtrap-pipeline/internal/api"
	"camtrap-pipeline/internal/store"
	"camtrap-pipeline/pkg/router"
)

// @title Camera Trap Analysis API
// @version 1.0
// @description Temporal independence analysis jobs over camera-trap observation tables.
// @BasePath /api/v1
func main() {
	if err := store.InitDB("camtrap.db"); err != nil {
		panic(err)
	}

	r := router.New()
	api.RegisterRoutes(r)
	r.Start(":8080")
}
