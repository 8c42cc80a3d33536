package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create missing builtin material presets and the mask texture",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return outputError("bootstrap", err)
		}
		h, err := openHook(cfg)
		if err != nil {
			return outputError("bootstrap", err)
		}
		defer h.Close()

		res, err := h.EnsureBuiltinResources(context.Background())
		if err != nil {
			return outputError("bootstrap", err)
		}
		return outputResult(CLIResult{Command: "bootstrap", Results: toCLIBootstrap(res)})
	},
}

var patchProjectsCmd = &cobra.Command{
	Use:   "patch-projects [dir]",
	Short: "Patch the generated C# project files in dir",
	Long:  "Forces the configured flag (AllowUnsafeBlocks=true by default) in every configuration-scoped property group of each matching project file. Files that would not change are left untouched.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return outputError("patch-projects", err)
		}
		dir := cfg.ProjectDir
		if len(args) > 0 {
			dir = args[0]
		}
		h, err := openHook(cfg)
		if err != nil {
			return outputError("patch-projects", err)
		}
		defer h.Close()

		report, patchErr := h.PatchProjectFiles(dir)
		if report == nil {
			return outputError("patch-projects", patchErr)
		}
		if err := outputResult(CLIResult{Command: "patch-projects", Results: toCLIPatchReport(report)}); err != nil {
			return err
		}
		if patchErr != nil {
			errorHandled = true
			printErr(patchErr)
		}
		return patchErr
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as INI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, err = cfg.WriteTo(os.Stdout)
		return err
	},
}
