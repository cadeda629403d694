package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"appbundler/internal/app"
	"appbundler/internal/types"
)

type bundleOptions struct {
	Format     string
	Manifest   string
	Binary     string
	BinaryName string
	OutputDir  string
	Target     string
	Release    bool
	Features   []string
}

func newBundleCommand() *cobra.Command {
	opts := bundleOptions{}
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Package a compiled binary into an installable bundle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBundle(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "", "Package format (osx, ios, deb, msi)")
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "bundle.yaml", "Bundle manifest path")
	cmd.Flags().StringVar(&opts.Binary, "binary", "", "Compiled binary path (defaults to the conventional build output)")
	cmd.Flags().StringVar(&opts.BinaryName, "name", "", "Binary name override")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "", "Output directory")
	cmd.Flags().StringVar(&opts.Target, "target", "", "Target triple the binary was built for")
	cmd.Flags().BoolVar(&opts.Release, "release", false, "Use the release build directory")
	cmd.Flags().StringSliceVar(&opts.Features, "features", nil, "Feature set the binary was compiled with")

	_ = viper.BindPFlag("format", cmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("manifest", cmd.Flags().Lookup("manifest"))
	_ = viper.BindPFlag("binary", cmd.Flags().Lookup("binary"))
	_ = viper.BindPFlag("binary_name", cmd.Flags().Lookup("name"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("target", cmd.Flags().Lookup("target"))
	_ = viper.BindPFlag("release", cmd.Flags().Lookup("release"))
	_ = viper.BindPFlag("features", cmd.Flags().Lookup("features"))

	return cmd
}

func runBundle(ctx context.Context, cmd *cobra.Command, opts bundleOptions) error {
	service := newAppService()
	result, err := service.Bundle(ctx, app.BundleRequest{
		ManifestPath: resolveString(cmd, opts.Manifest, "manifest", "manifest"),
		Format:       types.PackageFormat(resolveString(cmd, opts.Format, "format", "format")),
		BinaryPath:   resolveString(cmd, opts.Binary, "binary", "binary"),
		BinaryName:   resolveString(cmd, opts.BinaryName, "binary_name", "name"),
		OutputDir:    resolveString(cmd, opts.OutputDir, "output", "output"),
		Target:       resolveString(cmd, opts.Target, "target", "target"),
		Release:      resolveBool(cmd, opts.Release, "release", "release"),
		Features:     resolveStrings(cmd, opts.Features, "features", "features"),
	})
	if err != nil {
		return err
	}
	for _, warning := range result.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}
	fmt.Printf("bundled: %s\n", result.ArtifactPath)
	return nil
}
