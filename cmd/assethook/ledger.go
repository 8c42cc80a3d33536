package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/assethook"
	"github.com/jward/assethook/internal/assets"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <path>...",
	Short: "Show the asset kind of each path",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return outputError("classify", err)
		}
		h, err := openHook(cfg)
		if err != nil {
			return outputError("classify", err)
		}
		defer h.Close()

		ctx := context.Background()
		results := make([]CLIClassification, 0, len(args))
		for _, path := range args {
			kind, ok := h.Classify(ctx, path)
			results = append(results, CLIClassification{Path: path, Kind: string(kind), Known: ok})
		}
		return outputResult(CLIResult{Command: "classify", Results: results})
	},
}

var flagKind string

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "List the assets recorded in the ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagKind != "" && !knownKind(assethook.Kind(flagKind)) {
			return outputError("assets", fmt.Errorf("unknown kind %q", flagKind))
		}
		cfg, err := loadConfig()
		if err != nil {
			return outputError("assets", err)
		}
		h, err := openHook(cfg)
		if err != nil {
			return outputError("assets", err)
		}
		defer h.Close()

		list, err := h.Assets(assethook.Kind(flagKind))
		if err != nil {
			return outputError("assets", err)
		}
		count := len(list)
		return outputResult(CLIResult{Command: "assets", Results: toCLIAssets(list), TotalCount: &count})
	},
}

func init() {
	assetsCmd.Flags().StringVar(&flagKind, "kind", "", "only list assets of this kind")
}

func knownKind(k assethook.Kind) bool {
	for _, known := range assets.AllKinds() {
		if k == known {
			return true
		}
	}
	return false
}
