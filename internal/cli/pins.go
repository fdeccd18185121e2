package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/taxscroll/internal/pins"
)

var pinsOut string

// pinsCmd represents the pins command
var pinsCmd = &cobra.Command{
	Use:   "pins <scroll.json>",
	Short: "List the unique parcel identifiers of a record file",
	Long: `Pins reads the records written by parse and writes every distinct parcel
identifier, sorted, one per line.

Example:
  taxscroll pins scroll.json
  taxscroll pins scroll.json --out ids.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runPins,
}

func init() {
	rootCmd.AddCommand(pinsCmd)

	pinsCmd.Flags().StringVarP(&pinsOut, "out", "o", "parcel_ids.txt", "output identifier list path")
}

func runPins(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("out") {
		cfg.Output.PINsPath = pinsOut
	}

	list, err := pins.FromRecordsFile(args[0])
	if err != nil {
		return err
	}

	if err := pins.Write(cfg.Output.PINsPath, list); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "✓ Wrote %d parcel identifiers to %s\n", len(list), cfg.Output.PINsPath)
	return nil
}
