package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"hostelhub-backend-go/internal/client"
	"hostelhub-backend-go/internal/services"
)

const usage = `usage: hostelctl [-api URL] [-session FILE] <command> [args]

commands:
  login -email E -password P
  logout
  hostels [-search S] [-type T] [-per-room N] [-food] [-verified] [-min R] [-max R] [-sort]
  wishlist [add|remove ID | submit]
  visit -hostel ID -date YYYY-MM-DD -time HH:MM [-email E]
  visits
  admission ID
  listen [-poll 30s]
`

func main() {
	log.SetFlags(0)
	api := flag.String("api", envOr("HOSTELHUB_API_URL", "http://localhost:8080"), "server base URL")
	sessionPath := flag.String("session", envOr("HOSTELHUB_SESSION", defaultSessionPath()), "session file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	session, err := client.OpenSession(*sessionPath)
	if err != nil {
		log.Fatalf("session: %v", err)
	}
	c := client.New(*api, session)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, c, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}

func run(ctx context.Context, c *client.Client, cmd string, args []string) error {
	switch cmd {
	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", os.Getenv("HOSTELHUB_PASSWORD"), "account password")
		_ = fs.Parse(args)
		result, err := c.Login(ctx, *email, *password)
		if err != nil {
			return err
		}
		fmt.Printf("logged in as %s (%s)\n", result.Email, result.Role)
		return nil
	case "logout":
		return c.Logout(ctx)
	case "hostels":
		return listHostels(ctx, c, args)
	case "wishlist":
		return wishlist(ctx, c, args)
	case "visit":
		fs := flag.NewFlagSet("visit", flag.ExitOnError)
		var req services.VisitRequest
		fs.StringVar(&req.HostelID, "hostel", "", "hostel id")
		fs.StringVar(&req.Date, "date", "", "visit date")
		fs.StringVar(&req.Time, "time", "", "visit time")
		fs.StringVar(&req.Email, "email", c.Session.Get().Email, "contact email")
		_ = fs.Parse(args)
		visit, err := c.RequestVisit(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(visit)
	case "visits":
		if c.Session.Get().Role == "owner" {
			visits, err := c.OwnerVisits(ctx)
			if err != nil {
				return err
			}
			return printJSON(visits)
		}
		visits, err := c.StudentVisits(ctx)
		if err != nil {
			return err
		}
		return printJSON(visits)
	case "admission":
		if len(args) != 1 {
			return fmt.Errorf("expected a hostel id")
		}
		student, err := c.TakeAdmission(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(student)
	case "listen":
		return listen(ctx, c, args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command")
	}
}

func listHostels(ctx context.Context, c *client.Client, args []string) error {
	f := services.DefaultFilters()
	fs := flag.NewFlagSet("hostels", flag.ExitOnError)
	fs.StringVar(&f.SearchName, "search", "", "name contains")
	fs.StringVar(&f.Type, "type", f.Type, "hostel type")
	fs.StringVar(&f.StudentsPerRoom, "per-room", f.StudentsPerRoom, "students per room")
	fs.BoolVar(&f.Food, "food", false, "food included")
	fs.BoolVar(&f.Verified, "verified", false, "verified only")
	fs.IntVar(&f.RentRange[0], "min", f.RentRange[0], "minimum monthly rent")
	fs.IntVar(&f.RentRange[1], "max", f.RentRange[1], "maximum monthly rent")
	fs.BoolVar(&f.SortByRatings, "sort", false, "sort by average rating")
	_ = fs.Parse(args)

	hostels, err := c.Hostels(ctx, f)
	if err != nil {
		return err
	}
	for _, h := range hostels {
		verified := ""
		if h.Verified {
			verified = " verified"
		}
		fmt.Printf("%s  %-30s %-8s %d/room  %.1f*%s\n", h.ID, h.Name, h.HostelType, h.StudentsPerRoom, services.AverageRating(h), verified)
	}
	fmt.Printf("%d hostels\n", len(hostels))
	return nil
}

func wishlist(ctx context.Context, c *client.Client, args []string) error {
	w := c.Wishlist()
	if _, err := w.Count(ctx); err != nil {
		return err
	}
	var (
		ids []string
		err error
	)
	switch {
	case len(args) == 0:
		hostels, err := w.Hostels(ctx)
		if err != nil {
			return err
		}
		for _, h := range hostels {
			fmt.Printf("%s  %s\n", h.ID, h.Name)
		}
		return nil
	case args[0] == "add" && len(args) == 2:
		ids, err = w.Add(ctx, args[1])
	case args[0] == "remove" && len(args) == 2:
		ids, err = w.Remove(ctx, args[1])
	case args[0] == "submit":
		student, err := w.Submit(ctx)
		if err != nil {
			return err
		}
		return printJSON(student)
	default:
		return fmt.Errorf("expected add ID, remove ID or submit")
	}
	if err != nil {
		return err
	}
	fmt.Printf("wishlist %d/%d: %v\n", len(ids), w.Limit, ids)
	return nil
}

// listen prints push events. When the socket cannot be held it polls the
// visit list instead until interrupted.
func listen(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("listen", flag.ExitOnError)
	interval := fs.Duration("poll", 30*time.Second, "polling interval when push is unavailable")
	_ = fs.Parse(args)

	err := c.Listen(ctx, func(event services.Event) {
		_ = printJSON(event)
	})
	if err == nil || ctx.Err() != nil {
		return nil
	}
	log.Printf("push unavailable (%v), polling every %s", err, *interval)
	poller := client.NewPoller(*interval, func(ctx context.Context) error {
		var (
			visits interface{}
			err    error
		)
		if c.Session.Get().Role == "owner" {
			visits, err = c.OwnerVisits(ctx)
		} else {
			visits, err = c.StudentVisits(ctx)
		}
		if err != nil {
			return err
		}
		return printJSON(visits)
	})
	poller.Run(ctx)
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "hostelhub", "session.json")
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
