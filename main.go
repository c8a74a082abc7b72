package main

import (
	"github.com/SundayYogurt/equipment_service/config"
	"github.com/SundayYogurt/equipment_service/internal/api"
)

func main() {
	//load configuration
	cfg := config.LoadConfig()

	api.StartServer(cfg)
}
