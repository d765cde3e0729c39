package cmd

import (
	"go.uber.org/zap"

	"github.com/ctks/admin-console/internal/apiclient"
	"github.com/ctks/admin-console/internal/config"
)

func newAPIClient(cfg config.Config, log *zap.Logger) *apiclient.Client {
	return apiclient.New(apiclient.Options{
		BaseURL:       cfg.Backend.BaseURL,
		Timeout:       cfg.Backend.Timeout,
		FailThreshold: cfg.Backend.Breaker.FailThreshold,
		OpenFor:       cfg.Backend.Breaker.OpenFor,
		Logger:        log.Named("apiclient"),
	})
}
