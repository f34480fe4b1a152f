package main

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"solicitudes/internal/platform/config"
	"solicitudes/internal/platform/logger"
	"solicitudes/internal/requests/models"
	"solicitudes/internal/requests/service"
	"solicitudes/pkg/requestcontext"
)

var seedDocumentTypes = []string{
	"Contrato de Servicios",
	"Factura",
	"Orden de Compra",
	"Informe Técnico",
	"Propuesta Comercial",
	"Acta de Reunión",
}

var seedCompanies = []string{
	"Acme Corp",
	"Globex",
	"Initech",
	"Umbrella SA",
	"Stark Industries",
	"Wayne Enterprises",
	"Soylent Ltd",
	"Hooli",
}

// seedPlan is the number of requests created per status.
var seedPlan = []struct {
	status models.Status
	count  int
}{
	{models.StatusPending, 4},
	{models.StatusApproved, 3},
	{models.StatusRejected, 3},
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var seed uint64
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create sample requests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg, seed)
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed used to pick document names")
	return cmd
}

func runSeed(ctx context.Context, cfg config.Server, seed uint64) error {
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if cfg.Storage.Driver == config.StorageMemory {
		log.WarnContext(ctx, "seeding the in-memory store has no lasting effect")
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	summaries, err := seedRequests(ctx, a.service(), rand.New(rand.NewPCG(seed, seed)))
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "seed complete", "created", len(summaries))
	return nil
}

// seedRequests creates the seed plan through the create use case so audit
// and events fire exactly as for API calls.
func seedRequests(ctx context.Context, svc *service.Service, rng *rand.Rand) ([]models.RequestSummary, error) {
	ctx = requestcontext.WithTime(ctx, requestcontext.Now(ctx))
	var out []models.RequestSummary
	for _, step := range seedPlan {
		for range step.count {
			name := seedDocumentTypes[rng.IntN(len(seedDocumentTypes))] + " - " + seedCompanies[rng.IntN(len(seedCompanies))]
			summary, err := svc.Create.ExecuteWithStatus(ctx, name, step.status)
			if err != nil {
				return out, fmt.Errorf("seed %s request: %w", step.status, err)
			}
			out = append(out, summary)
		}
	}
	return out, nil
}
