package main

import (
	"github.com/carbocation/gelqc/standards"
	"github.com/carbocation/pfx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var checkFile string

var standardsCmd = &cobra.Command{
	Use:   "standards",
	Short: "Print the standards in effect, or check a standards document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := standards.Default()

		switch {
		case checkFile != "":
			c, err := standards.ParseFile(checkFile)
			if err != nil {
				return err
			}
			log.Info("standards document is valid", zap.String("path", checkFile))
			cfg = c
		case standardsPath != "":
			c, err := loadStandards(cmd.Context())
			if err != nil {
				return err
			}
			cfg = c
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()

		if err := enc.Encode(cfg); err != nil {
			return pfx.Err(err)
		}

		return nil
	},
}

func init() {
	standardsCmd.Flags().StringVar(&checkFile, "file", "", "Standards document to validate")
}
