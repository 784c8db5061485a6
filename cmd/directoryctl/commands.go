package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-directory/pkg/client"
)

type clientFactory func(ctx context.Context, cfg client.Config) (*client.Client, error)

type app struct {
	out       io.Writer
	newClient clientFactory
	apiURL    string
}

// newRootCmd builds the command tree. factory defaults to
// client.NewFromConfig.
func newRootCmd(out io.Writer, factory clientFactory) *cobra.Command {
	if factory == nil {
		factory = client.NewFromConfig
	}
	a := &app{out: out, newClient: factory}

	root := &cobra.Command{
		Use:           "directoryctl",
		Short:         "Browse and manage the clinic directory",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "API base URL, overrides DIRECTORY_API_URL")

	root.AddCommand(
		a.servicesCmd(),
		a.clinicsCmd(),
		a.logsCmd(),
		a.healthCmd(),
		a.cacheCmd(),
	)
	return root
}

// withClient runs fn with a client built from the environment and flags.
func (a *app) withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) error {
	cfg, err := client.LoadConfig()
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := a.newClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c)
}

func (a *app) print(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) servicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the active service catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				services, err := c.ListServices(ctx)
				if err != nil {
					return err
				}
				return a.print(services)
			})
		},
	}
}

func (a *app) clinicsCmd() *cobra.Command {
	clinics := &cobra.Command{
		Use:   "clinics",
		Short: "List, search and create clinics",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every clinic, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				result, err := c.ListClinics(ctx)
				if err != nil {
					return err
				}
				return a.print(result)
			})
		},
	}

	var filters client.SearchFilters
	search := &cobra.Command{
		Use:   "search",
		Short: "Search clinics by location, name and offered services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				result, err := c.SearchClinics(ctx, filters)
				if err != nil {
					return err
				}
				return a.print(result)
			})
		},
	}
	search.Flags().StringVar(&filters.City, "city", "", "city contains")
	search.Flags().StringVar(&filters.State, "state", "", "state contains")
	search.Flags().StringVar(&filters.SearchTerm, "term", "", "clinic or business name contains")
	search.Flags().StringSliceVar(&filters.ServiceIDs, "service", nil, "offers any of these service ids (repeatable)")

	var req client.NewClinic
	var lat, lon float64
	var selections []string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a clinic",
		Example: `  directoryctl clinics create --name "Lakeside Urgent Care" --business "Lakeside Medical Group" \
    --street "900 Shore Drive" --city Seattle --state Washington --zip 98101 \
    --service SRV001=135 --service SRV004`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := parseSelections(selections)
			if err != nil {
				return err
			}
			req.Services = services
			if cmd.Flags().Changed("lat") {
				req.Latitude = &lat
			}
			if cmd.Flags().Changed("lon") {
				req.Longitude = &lon
			}

			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				clinic, err := c.CreateClinic(ctx, &req)
				if err != nil {
					return err
				}
				return a.print(clinic)
			})
		},
	}
	create.Flags().StringVar(&req.ClinicName, "name", "", "clinic name")
	create.Flags().StringVar(&req.BusinessName, "business", "", "legal business name")
	create.Flags().StringVar(&req.StreetAddress, "street", "", "street address")
	create.Flags().StringVar(&req.City, "city", "", "city")
	create.Flags().StringVar(&req.State, "state", "", "state")
	create.Flags().StringVar(&req.Country, "country", "", "country (default United States)")
	create.Flags().StringVar(&req.ZipCode, "zip", "", "ZIP code")
	create.Flags().Float64Var(&lat, "lat", 0, "latitude")
	create.Flags().Float64Var(&lon, "lon", 0, "longitude")
	create.Flags().StringArrayVar(&selections, "service", nil, "service offered, as ID or ID=price (repeatable)")

	clinics.AddCommand(list, search, create)
	return clinics
}

// parseSelections reads --service values of the form SRV001 or SRV001=150.
// A price suffix of "!" marks the offer inactive, e.g. SRV002=200!.
func parseSelections(values []string) ([]client.ServiceSelection, error) {
	selections := make([]client.ServiceSelection, 0, len(values))
	for _, v := range values {
		id, price, hasPrice := strings.Cut(strings.TrimSpace(v), "=")
		sel := client.ServiceSelection{ServiceID: strings.TrimSpace(id)}
		if sel.ServiceID == "" {
			return nil, fmt.Errorf("invalid --service %q: missing service id", v)
		}

		if hasPrice {
			price = strings.TrimSpace(price)
			if p, ok := strings.CutSuffix(price, "!"); ok {
				inactive := false
				sel.IsActive = &inactive
				price = p
			}
			if price != "" {
				n, err := strconv.ParseFloat(price, 64)
				if err != nil {
					return nil, fmt.Errorf("invalid --service %q: price must be a number", v)
				}
				sel.Price = &n
			}
		}
		selections = append(selections, sel)
	}
	return selections, nil
}

func (a *app) logsCmd() *cobra.Command {
	logs := &cobra.Command{
		Use:   "logs",
		Short: "Read or clear the activity log",
	}

	var q client.LogQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "List activity entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				entries, err := c.ListLogs(ctx, q)
				if err != nil {
					return err
				}
				return a.print(entries)
			})
		},
	}
	list.Flags().StringVar(&q.Type, "type", "", "Info, Warning or Error")
	list.Flags().StringVar(&q.Priority, "priority", "", "Critical, High, Medium or Low")
	list.Flags().IntVar(&q.Limit, "limit", 0, "maximum entries (server default 100)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every activity entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				msg, err := c.ClearLogs(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, msg)
				return nil
			})
		},
	}

	logs.AddCommand(list, clearCmd)
	return logs
}

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				status, err := c.Health(ctx)
				if err != nil {
					return err
				}
				return a.print(status)
			})
		},
	}
}

// cacheCmd is only useful with the redis backend and a fixed
// DIRECTORY_SESSION_ID; the memory cache lives for one invocation.
func (a *app) cacheCmd() *cobra.Command {
	cache := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the search cache",
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show cached filter keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				s, err := c.CacheStats(ctx)
				if err != nil {
					return err
				}
				return a.print(s)
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := c.ClearCache(ctx); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Cache cleared")
				return nil
			})
		},
	}

	cache.AddCommand(stats, clearCmd)
	return cache
}
