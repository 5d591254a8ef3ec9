// Command idparse extracts identity fields from OCR text files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "idparse",
		Short: "Extract identity fields from OCR text",
		Long: `idparse reads OCR text of one identity document (passport, NRIC or FIN card)
and extracts name, id number, nationality, date of birth, gender and address.

Each input file is one observation of the same document. Evidence accumulates
across observations; a field is reported as confident once it passes its
check (MRZ or NRIC checksum, reference table match, birth-year rule) or, for
name and address, once the same reading was seen three times.

Examples:
  idparse parse frame1.txt frame2.txt frame3.txt
  tesseract card.png - | idparse parse
  idparse parse --split '---' < frames.txt
  idparse table --output code`,
		SilenceUsage: true,
	}
	root.AddCommand(newParseCmd(), newTableCmd(), newHashPasswordCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
