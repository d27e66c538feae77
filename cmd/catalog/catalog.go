// Package catalog implements the `catalog` sub-commands.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/basilisk-nexus/eventnexus/catalog"
	"github.com/basilisk-nexus/eventnexus/catalog/basilisk"
	"github.com/basilisk-nexus/eventnexus/catalog/metafile"
	"github.com/basilisk-nexus/eventnexus/config"
	"github.com/basilisk-nexus/eventnexus/normalizer"
)

var (
	output       string
	fingerprints string
	configFile   string

	catalogCmd = &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the compiled-in event catalog",
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List every registered schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return list(cmd.OutOrStdout(), basilisk.Catalog(), output)
		},
	}

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Compare the catalog with the live runtime's event fingerprints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := fingerprintsPath()
			if err != nil {
				return err
			}
			return check(cmd.Context(), cmd.OutOrStdout(), basilisk.Catalog(), path)
		},
	}
)

// VersionInfo describes one registered schema version.
type VersionInfo struct {
	Kind        string `json:"kind" yaml:"kind"`
	Tag         string `json:"tag" yaml:"tag"`
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
	Signature   string `json:"signature" yaml:"signature"`
	Normalized  bool   `json:"normalized" yaml:"normalized"`
}

// Describe lists the versions of c in catalog order.
func Describe(c *catalog.Catalog) ([]VersionInfo, error) {
	norm, err := normalizer.New(c, normalizer.Options{})
	if err != nil {
		return nil, err
	}
	var out []VersionInfo
	for _, kind := range c.Kinds() {
		versions, err := c.Versions(kind)
		if err != nil {
			return nil, err
		}
		for _, v := range versions {
			out = append(out, VersionInfo{
				Kind:        kind.String(),
				Tag:         v.Tag,
				Fingerprint: v.Fingerprint.String(),
				Signature:   v.Layout.String(),
				Normalized:  norm.Mapped(kind, v.Tag),
			})
		}
	}
	return out, nil
}

func list(w io.Writer, c *catalog.Catalog, format string) error {
	infos, err := Describe(c)
	if err != nil {
		return err
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(infos)
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KIND\tVERSION\tNORMALIZED\tFINGERPRINT")
		for _, info := range infos {
			fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", info.Kind, info.Tag, info.Normalized, info.Fingerprint)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func fingerprintsPath() (string, error) {
	if fingerprints != "" {
		return fingerprints, nil
	}
	if configFile == "" {
		return "", fmt.Errorf("either --fingerprints or --config is required")
	}
	cfg, err := config.InitConfig(configFile)
	if err != nil {
		return "", err
	}
	if cfg.Catalog == nil {
		return "", fmt.Errorf("%s has no catalog section", configFile)
	}
	return cfg.Catalog.Fingerprints, nil
}

func check(ctx context.Context, w io.Writer, c *catalog.Catalog, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	fps, err := metafile.Load(path)
	if err != nil {
		return err
	}
	statuses, err := catalog.CheckCompleteness(ctx, c, fps)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tCOVERAGE\tVERSION\tCURRENT")
	missing := 0
	for _, st := range statuses {
		current := ""
		if st.Coverage != catalog.Retired {
			current = st.Current.String()
		}
		if st.Coverage == catalog.Missing {
			missing++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", st.Kind, st.Coverage, st.Tag, current)
	}
	for _, kind := range fps.Unknown(c) {
		fmt.Fprintf(tw, "%s\t%s\t\t\n", kind, "uncataloged")
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if catalog.Incomplete(statuses) {
		return fmt.Errorf("catalog is missing the current layout of %d event kinds", missing)
	}
	return nil
}

// Register registers the catalog sub-commands.
func Register(parentCmd *cobra.Command) {
	listCmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json or yaml")
	checkCmd.Flags().StringVar(&fingerprints, "fingerprints", "", "path to the live fingerprints file")
	checkCmd.Flags().StringVar(&configFile, "config", "", "path to a config.yml file with a catalog section")

	catalogCmd.AddCommand(listCmd, checkCmd)
	parentCmd.AddCommand(catalogCmd)
}
