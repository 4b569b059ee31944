package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/donaldgifford/collection-watcher/internal/aggregate"
	apiclient "github.com/donaldgifford/collection-watcher/internal/api/client"
	"github.com/donaldgifford/collection-watcher/internal/fileio"
)

func aggregateCmd() *cobra.Command {
	var (
		remote   bool
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "aggregate <collectionId> [page] [token]",
		Short: "Sum collection item prices into a payload and curl file",
		Long: "Fetches one page of a collection's items, sums their prices and\n" +
			"writes the purchase payload and a matching curl command.\n" +
			"page defaults to 10. The token may also come from --token or\n" +
			"COLLECTION_WATCHER_TOKEN.",
		Args: cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseAggregateArgs(args, viper.GetString("token"))
			if err != nil {
				return err
			}
			req.PageSize = pageSize

			if remote {
				return runRemoteAggregate(cmd, req)
			}
			return runLocalAggregate(cmd, req)
		},
	}

	cmd.Flags().String("token", "", "auth token embedded in the curl command")
	cmd.Flags().BoolVar(&remote, "remote", false, "run the aggregation on the API server")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "items per page (marketplace default when 0)")
	cobra.CheckErr(viper.BindPFlag("token", cmd.Flags().Lookup("token")))

	return cmd
}

// parseAggregateArgs maps <collectionId> [page] [token] onto a request. A
// positional token overrides the flag/env token.
func parseAggregateArgs(args []string, token string) (aggregate.Request, error) {
	req := aggregate.Request{Page: aggregate.DefaultPage, Token: token}

	if len(args) == 0 || args[0] == "" {
		return req, aggregate.ErrMissingCollectionID
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return req, fmt.Errorf("%w: invalid collectionId %q", aggregate.ErrMissingCollectionID, args[0])
	}
	req.CollectionID = id

	if len(args) > 1 {
		page, err := strconv.Atoi(args[1])
		if err != nil || page <= 0 {
			return req, fmt.Errorf("invalid page %q: must be a positive integer", args[1])
		}
		req.Page = page
	}
	if len(args) > 2 {
		req.Token = args[2]
	}
	return req, nil
}

func runLocalAggregate(cmd *cobra.Command, req aggregate.Request) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	agg := newAggregator(cfg, log, fileio.NewOS(), newMarketplaceClient(&cfg.Marketplace))
	payload, err := agg.Run(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}

	if jsonOutput() {
		return outputJSON(payload)
	}
	return printPayload(os.Stdout, payload, cfg.Output.PayloadPath, cfg.Output.CurlPath)
}

func runRemoteAggregate(cmd *cobra.Command, req aggregate.Request) error {
	res, err := newClient().Aggregate(cmd.Context(), apiclient.AggregateRequest{
		CollectionID: req.CollectionID,
		Page:         req.Page,
		PageSize:     req.PageSize,
		Token:        req.Token,
	})
	if err != nil {
		return err
	}

	if jsonOutput() {
		return outputJSON(res)
	}

	tw := newTabWriter(os.Stdout)
	tw.writef("NFT\tPRICE\n")
	for _, id := range res.NFTs {
		tw.writef("%d\t%s\n", id, res.NFTsPrices[strconv.FormatInt(id, 10)])
	}
	tw.writef("TOTAL\t%s\n", res.Total)
	return tw.finish()
}
