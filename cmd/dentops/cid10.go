// CID-10 reference-data commands: generate, search, bench, export.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/odontoware/dentops/internal/cid10"
)

var (
	flagCID10FromXML bool
	flagCID10Limit   int
	flagCID10Out     string
)

var cid10Cmd = &cobra.Command{
	Use:   "cid10",
	Short: "Generate and query the CID-10 reference data",
}

var cid10GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Extract codes from the DATASUS XML into the JSON artifact",
	Args:  cobra.NoArgs,
	RunE:  runCID10Generate,
}

var cid10SearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the reference data by name or code prefix",
	Long: `Search scans the JSON artifact with accent folding: "carie"
finds "Cárie dentária". With --xml it scans the raw XML instead, which
is the slow path the artifact exists to avoid.`,
	Args: cobra.ExactArgs(1),
	RunE: runCID10Search,
}

var cid10BenchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Compare the JSON-catalog and XML-scan search strategies",
	Args:  cobra.NoArgs,
	RunE:  runCID10Bench,
}

var cid10ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the reference data to an .xlsx workbook",
	Args:  cobra.NoArgs,
	RunE:  runCID10Export,
}

func init() {
	cid10SearchCmd.Flags().BoolVar(&flagCID10FromXML, "xml", false, "scan the raw XML instead of the JSON artifact")
	cid10SearchCmd.Flags().IntVar(&flagCID10Limit, "limit", 20, "maximum results to print (0 = all)")
	cid10ExportCmd.Flags().StringVar(&flagCID10Out, "out", "cid10.xlsx", "output workbook path")

	cid10Cmd.AddCommand(cid10GenerateCmd)
	cid10Cmd.AddCommand(cid10SearchCmd)
	cid10Cmd.AddCommand(cid10BenchCmd)
	cid10Cmd.AddCommand(cid10ExportCmd)
}

func runCID10Generate(cmd *cobra.Command, args []string) error {
	f, err := os.Open(cfg.CID10XML)
	if err != nil {
		return fmt.Errorf("open CID-10 XML: %w", err)
	}
	defer f.Close()

	codes, err := cid10.ExtractXML(f)
	if err != nil {
		return err
	}
	if err := cid10.WriteJSON(codes, cfg.CID10JSON); err != nil {
		return err
	}
	fmt.Printf("%s %d codes written to %s\n", okMark("✓"), len(codes), cfg.CID10JSON)
	return nil
}

func runCID10Search(cmd *cobra.Command, args []string) error {
	query := args[0]

	var results []cid10.Code
	if flagCID10FromXML {
		data, err := os.ReadFile(cfg.CID10XML)
		if err != nil {
			return fmt.Errorf("read CID-10 XML: %w", err)
		}
		results, err = cid10.SearchXML(data, query)
		if err != nil {
			return err
		}
	} else {
		catalog, err := cid10.LoadJSON(cfg.CID10JSON)
		if err != nil {
			return fmt.Errorf("load catalog (run 'dentops cid10 generate' first): %w", err)
		}
		results = catalog.Search(query)
	}

	if flagJSON {
		return printJSON(results)
	}

	total := len(results)
	if flagCID10Limit > 0 && total > flagCID10Limit {
		results = results[:flagCID10Limit]
	}
	for _, code := range results {
		fmt.Printf("%-8s %s\n", code.Code, code.Name)
	}
	if len(results) < total {
		fmt.Printf("… %d more (use --limit 0)\n", total-len(results))
	}
	if total == 0 {
		fmt.Println("no matches")
	}
	return nil
}

// benchQueries exercise name, accented-name and code-prefix matching.
var benchQueries = []string{"carie", "cólera", "K02", "periodontite"}

func runCID10Bench(cmd *cobra.Command, args []string) error {
	xml, err := os.ReadFile(cfg.CID10XML)
	if err != nil {
		return fmt.Errorf("read CID-10 XML: %w", err)
	}
	catalog, err := cid10.LoadJSON(cfg.CID10JSON)
	if err != nil {
		return fmt.Errorf("load catalog (run 'dentops cid10 generate' first): %w", err)
	}

	fmt.Printf("%-15s %12s %12s %8s\n", "QUERY", "CATALOG", "XML SCAN", "MATCHES")
	for _, query := range benchQueries {
		start := time.Now()
		fromCatalog := catalog.Search(query)
		catalogTime := time.Since(start)

		start = time.Now()
		fromXML, err := cid10.SearchXML(xml, query)
		if err != nil {
			return err
		}
		xmlTime := time.Since(start)

		if len(fromCatalog) != len(fromXML) {
			return fmt.Errorf("strategies disagree on %q: %d vs %d matches",
				query, len(fromCatalog), len(fromXML))
		}
		fmt.Printf("%-15s %12s %12s %8d\n", query, catalogTime, xmlTime, len(fromCatalog))
	}
	return nil
}

func runCID10Export(cmd *cobra.Command, args []string) error {
	catalog, err := cid10.LoadJSON(cfg.CID10JSON)
	if err != nil {
		return fmt.Errorf("load catalog (run 'dentops cid10 generate' first): %w", err)
	}
	if err := cid10.ExportXLSX(catalog, flagCID10Out); err != nil {
		return err
	}
	fmt.Printf("%s %d codes exported to %s\n", okMark("✓"), catalog.Len(), flagCID10Out)
	return nil
}
