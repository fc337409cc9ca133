package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DrSkyle/balanco/pkg/config"
	"github.com/DrSkyle/balanco/pkg/storage"
)

type check struct {
	name string
	run  func(ctx context.Context) (string, error)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, API reachability and the storage sink",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		checks := []check{
			{"open-data API", checkAPI},
			{"storage sink", checkSink},
		}
		if cfg.SinkMode() == config.SinkS3 {
			checks = append(checks, check{"AWS identity", checkIdentity})
		}

		fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render("BALANCO DOCTOR"))
		failed := 0
		for _, c := range checks {
			detail, err := c.run(ctx)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "  %s %-14s %v\n", failStyle.Render("✗"), c.name, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %-14s %s\n", okStyle.Render("✓"), c.name, detail)
		}
		if failed > 0 {
			return fmt.Errorf("%d check(s) failed", failed)
		}
		return nil
	},
}

func checkAPI(ctx context.Context) (string, error) {
	client := newCKANClient()
	pkg, err := client.PackageShow(ctx, cfg.DatasetID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s: dataset %s has %d resources", client.BaseURL(), cfg.DatasetID, len(pkg.Resources)), nil
}

func checkSink(ctx context.Context) (string, error) {
	store, err := openStore(ctx)
	if err != nil {
		return "", err
	}
	if store == nil {
		return "", config.ErrNoSink
	}
	if err := store.Ping(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s reachable", store.Describe()), nil
}

func checkIdentity(ctx context.Context) (string, error) {
	awsCfg, err := storage.NewAWSConfig(ctx, storage.AWSOptions{Region: cfg.AWSRegion, Endpoint: cfg.AWSEndpoint})
	if err != nil {
		return "", err
	}
	account, err := storage.VerifyIdentity(ctx, awsCfg)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("account %s in %s", account, awsCfg.Region), nil
}
