package main

import (
	"fmt"
	"os"

	"github.com/aslanbek/grainflow/internal/auth"
	"github.com/aslanbek/grainflow/internal/config"
	"github.com/aslanbek/grainflow/internal/db"
	"github.com/aslanbek/grainflow/internal/excel"
	httphandler "github.com/aslanbek/grainflow/internal/http"
	"github.com/aslanbek/grainflow/internal/http/middleware"
	"github.com/aslanbek/grainflow/internal/logger"
	"github.com/aslanbek/grainflow/internal/pdf"
	"github.com/aslanbek/grainflow/internal/repository"
	"github.com/aslanbek/grainflow/internal/service"
	"github.com/aslanbek/grainflow/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	store, err := storage.NewStore(cfg.Storage.Dir, cfg.Storage.PublicBase)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init file storage")
	}

	contractRepo := repository.NewContractRepository(database)
	applicationRepo := repository.NewApplicationRepository(database)
	wagonRepo := repository.NewWagonRepository(database)
	documentRepo := repository.NewDocumentRepository(database)

	contractLocks := service.NewContractLocks()
	contractService := service.NewContractService(contractRepo, applicationRepo, contractLocks)
	applicationService := service.NewApplicationService(applicationRepo, contractRepo, documentRepo, store, contractLocks, log)
	documentService := service.NewDocumentService(documentRepo, contractRepo, applicationRepo, wagonRepo, store, log)
	wagonService := service.NewWagonService(wagonRepo, applicationRepo, contractRepo, documentRepo, documentService, store, log)

	pdfGenerator, err := pdf.NewGenerator()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init pdf generator")
	}
	reportService := service.NewReportService(wagonService, excel.NewGenerator(), pdfGenerator)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(contractService, applicationService, wagonService, documentService, reportService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting grainflow service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
