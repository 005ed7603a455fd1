package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/booktime/booktime-backend/internal/app/repository"
	"github.com/booktime/booktime-backend/internal/app/service"
	"github.com/booktime/booktime-backend/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Spreadsheet columns, in order: name, slug, description, price, tags.
const (
	colName = iota
	colSlug
	colDescription
	colPrice
	colTags
)

// ImportOptions holds flags for the import-products command.
type ImportOptions struct {
	*RootOptions
	DryRun bool
	Yes    bool
}

// ImportSummary reports what an import did.
type ImportSummary struct {
	Read        int
	Created     int
	Skipped     int
	TagsCreated int
}

// NewImportProductsCommand creates the import-products command.
func NewImportProductsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import-products <file.xlsx>",
		Short: "Import catalog products from a spreadsheet",
		Long: `Reads the first sheet of an XLSX file. The first row is a header; the
columns are name, slug, description, price and tags (comma separated tag
slugs). Missing tags are created. Rows whose slug already exists are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportProducts(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "read and validate the file without writing")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

func runImportProducts(ctx context.Context, in io.Reader, out io.Writer, path string, opts *ImportOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Fprintf(out, "Reading XLSX file: %s\n", path)
	rows, skipped, err := readProductsFromXLSX(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Products to import: %d (skipped %d invalid rows)\n", len(rows), skipped)

	if opts.DryRun || len(rows) == 0 {
		return nil
	}
	if !opts.Yes && !confirm(in, out, "Do you want to proceed with the import? (yes/no): ") {
		fmt.Fprintln(out, "Import cancelled.")
		return nil
	}

	catalog := service.NewCatalogService(
		repository.NewProductRepository(opts.DB),
		repository.NewTagRepository(opts.DB),
	)
	summary, err := importProducts(ctx, catalog, rows)
	if err != nil {
		return err
	}
	summary.Skipped += skipped

	fmt.Fprintf(out, "Import completed: %d created, %d skipped, %d tags created\n",
		summary.Created, summary.Skipped, summary.TagsCreated)
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y"
}

// readProductsFromXLSX returns the valid rows of the first sheet and the
// number of rows it had to skip.
func readProductsFromXLSX(path string) ([]service.ProductInput, int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, errors.New("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, errors.New("no data found in XLSX file")
	}

	var products []service.ProductInput
	seen := make(map[string]bool)
	skipped := 0

	// first row is the header
	for _, row := range rows[1:] {
		if len(row) <= colPrice {
			skipped++
			continue
		}

		name := strings.TrimSpace(row[colName])
		price, err := decimal.NewFromString(strings.TrimSpace(row[colPrice]))
		if name == "" || err != nil || price.IsNegative() {
			skipped++
			continue
		}

		slug := util.Slugify(row[colSlug])
		if slug == "" {
			slug = util.Slugify(name)
		}
		if slug == "" || seen[slug] {
			skipped++
			continue
		}
		seen[slug] = true

		var tags []string
		if len(row) > colTags {
			tags = splitTags(row[colTags])
		}

		products = append(products, service.ProductInput{
			Name:        name,
			Slug:        slug,
			Description: strings.TrimSpace(row[colDescription]),
			Price:       price,
			Active:      true,
			InStock:     true,
			TagSlugs:    tags,
		})
	}

	return products, skipped, nil
}

func splitTags(cell string) []string {
	var tags []string
	for _, part := range strings.Split(cell, ",") {
		if slug := util.Slugify(part); slug != "" {
			tags = append(tags, slug)
		}
	}
	return tags
}

func importProducts(ctx context.Context, catalog service.CatalogService, rows []service.ProductInput) (*ImportSummary, error) {
	summary := &ImportSummary{Read: len(rows)}

	existing, err := catalog.ListTags(ctx, false)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(existing))
	for _, tag := range existing {
		known[tag.Slug] = true
	}

	title := cases.Title(language.English)
	for _, row := range rows {
		for _, slug := range row.TagSlugs {
			if known[slug] {
				continue
			}
			name := title.String(strings.ReplaceAll(slug, "-", " "))
			if _, err := catalog.CreateTag(ctx, service.TagInput{Name: name, Slug: slug, Active: true}); err != nil {
				return nil, fmt.Errorf("create tag %s: %w", slug, err)
			}
			known[slug] = true
			summary.TagsCreated++
		}

		if _, err := catalog.CreateProduct(ctx, row); err != nil {
			if errors.Is(err, service.ErrConflict) || errors.Is(err, service.ErrValidation) {
				summary.Skipped++
				continue
			}
			return nil, fmt.Errorf("create product %s: %w", row.Slug, err)
		}
		summary.Created++
	}

	return summary, nil
}
