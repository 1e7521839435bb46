package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yourusername/nyaa-go/internal/domain"
)

var searchCmd = &cobra.Command{
	Use:   "search [term...]",
	Short: "Search the index and print one or more result pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		q, err := queryFromFlags(cmd, services.Config.Search, strings.Join(args, " "))
		if err != nil {
			return err
		}
		pages, _ := cmd.Flags().GetInt("pages")
		asJSON, _ := cmd.Flags().GetBool("json")

		var results []*domain.Page
		if pages > 1 {
			results, err = services.Search.SearchPages(cmd.Context(), q, pages)
		} else {
			var page *domain.Page
			page, _, err = services.Search.Search(cmd.Context(), q)
			results = []*domain.Page{page}
		}
		if err != nil {
			return fmt.Errorf("search failed (%s): %w", domain.CauseOf(err), err)
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		printPages(os.Stdout, results)
		return nil
	},
}

func init() {
	addQueryFlags(searchCmd)
	searchCmd.Flags().Int("pages", 1, "Number of pages to fetch, starting at page 1")
	searchCmd.Flags().BoolP("json", "j", false, "Output in JSON format")
}

// addQueryFlags registers the flags read by queryFromFlags
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().String("category", "", "Category code or name (e.g. 1_2, \"Anime - Raw\")")
	cmd.Flags().String("filter", "", "Filter (no_filter, no_remakes, trusted_only, batches)")
	cmd.Flags().String("sort", "", "Sort key (date, downloads, seeders, leechers, size)")
	cmd.Flags().Bool("asc", false, "Sort ascending")
	cmd.Flags().String("source", "", "Source backend (html, rss)")
	cmd.Flags().IntP("page", "p", 1, "Page to fetch")
}

// queryFromFlags applies the search flags on top of the configured defaults
func queryFromFlags(cmd *cobra.Command, defaults domain.SearchConfig, term string) (domain.QuerySpec, error) {
	q := defaults.DefaultQuery(term)
	flags := cmd.Flags()

	if v, _ := flags.GetString("category"); v != "" {
		q.Category = domain.LookupCategory(v)
	}
	if v, _ := flags.GetString("filter"); v != "" {
		q.Filter = domain.Filter(v)
	}
	if v, _ := flags.GetString("sort"); v != "" {
		q.Sort = domain.SortKey(v)
	}
	if flags.Changed("asc") {
		q.Direction = domain.SortDesc
		if asc, _ := flags.GetBool("asc"); asc {
			q.Direction = domain.SortAsc
		}
	}
	if v, _ := flags.GetString("source"); v != "" {
		q.Source = domain.SourceKind(v)
	}
	if flags.Changed("page") {
		q.Page, _ = flags.GetInt("page")
	}

	q = q.Normalized()
	return q, q.Validate()
}

func printPages(out io.Writer, pages []*domain.Page) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tCAT\tNAME\tSIZE\tDATE\tS\tL\tD")

	n := 0
	for _, page := range pages {
		for _, item := range page.Items {
			n++
			size := humanize.IBytes(uint64(item.Size))
			if item.SizeUnknown {
				size = "?"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
				n,
				item.Category.Info().Short,
				truncate(item.Title, 70),
				size,
				item.Published.Format("2006-01-02 15:04"),
				item.Seeders,
				item.Leechers,
				item.Downloads)
		}
	}
	w.Flush()

	if len(pages) == 0 {
		return
	}
	last := pages[len(pages)-1]
	summary := fmt.Sprintf("%d results shown, page %d", n, last.Number)
	if last.LastPage > 0 {
		summary += fmt.Sprintf(" of %d", last.LastPage)
	}
	if last.TotalResults > 0 {
		summary += fmt.Sprintf(" (%s total)", humanize.Comma(int64(last.TotalResults)))
	}
	fmt.Fprintln(out, summary)
}

// searcher runs a single query under the retry policy
type searcher interface {
	Search(ctx context.Context, q domain.QuerySpec) (*domain.Page, int, error)
}

// pickResult runs q and returns the result at 1-based position pick
func pickResult(ctx context.Context, search searcher, q domain.QuerySpec, pick int) (domain.ResultItem, error) {
	page, _, err := search.Search(ctx, q)
	if err != nil {
		return domain.ResultItem{}, err
	}
	if pick < 1 || pick > page.Len() {
		return domain.ResultItem{}, fmt.Errorf("result %d not on page %d (%d results)", pick, page.Number, page.Len())
	}
	return page.Items[pick-1], nil
}
