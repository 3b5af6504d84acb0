package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/artify3d/client/domain"
	"github.com/artify3d/client/internal/config"
	pgInfra "github.com/artify3d/client/internal/infrastructure/postgres"
	redisInfra "github.com/artify3d/client/internal/infrastructure/redis"
	"github.com/artify3d/client/internal/lifecycle"
	"github.com/artify3d/client/pkg/logger"
	"github.com/artify3d/client/repository"
	"github.com/artify3d/client/repository/boltdb"
	"github.com/artify3d/client/repository/memory"
	pgRepo "github.com/artify3d/client/repository/postgres"
	redisRepo "github.com/artify3d/client/repository/redis"
	"github.com/artify3d/client/repository/rest"
	"github.com/artify3d/client/usecase/catalog"
	"github.com/artify3d/client/usecase/session"
)

const usageText = `artify - 3D artwork gallery client

Usage:
  artify <command> [flags]

Commands:
  signup   create an account and sign in
  login    sign in with an existing account
  logout   end the current session
  whoami   show the signed-in identity
  list     list artworks, newest first
  create   publish a new artwork
  update   edit an owned artwork
  delete   remove an owned artwork (asks for confirmation)
  view     record a view on an artwork
  like     like an artwork (requires sign-in)
  stats    show aggregate stats for the signed-in account
  migrate  apply database migrations (postgres backend only)

Run 'artify <command> -h' for command flags.`

// app bundles everything a command needs after wiring.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	session *session.Manager
	catalog *catalog.Manager

	// restClient is non-nil only for the rest backend; commands never
	// touch it, restore/login keep its token in sync via the adapters.
	restClient *rest.Client
}

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" || os.Args[1] == "help" {
		fmt.Println(usageText)
		return
	}
	command := os.Args[1]
	args := os.Args[2:]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	ctx, cancel := manager.NotifyInterrupt(context.Background())
	defer cancel()

	if command == "migrate" {
		if err := pgInfra.Migrate(cfg.Database.URL, cfg.Migrations.Path, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}
		fmt.Println("migrations applied")
		return
	}

	a, err := wire(ctx, cfg, zapLogger, manager)
	if err != nil {
		zapLogger.Fatal("wiring failed", zap.Error(err))
	}

	runCtx, cancelRun := context.WithTimeout(ctx, cfg.Context.RequestTimeout)
	err = a.run(runCtx, command, args)
	cancelRun()

	if closeErr := manager.Close(context.Background()); closeErr != nil {
		zapLogger.Error("teardown error", zap.Error(closeErr))
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}
}

// wire assembles the store adapters, restores the session from the
// local store, and builds the session and catalog managers.
func wire(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger, manager *lifecycle.Manager) (*app, error) {
	store, err := openLocalStore(cfg, manager)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: zapLogger}

	var (
		artworks repository.ArtworkRepository
		accounts repository.AccountService
	)

	switch cfg.Store {
	case config.StorePostgres:
		if cfg.Migrations.Enabled {
			if err := pgInfra.Migrate(cfg.Database.URL, cfg.Migrations.Path, zapLogger); err != nil {
				return nil, err
			}
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			return nil, err
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pgInfra.Close(pool, zapLogger)
			return nil
		})
		artworks = pgRepo.NewArtworkRepository(pool)
		accounts = pgRepo.NewAccountService(pool)

	case config.StoreRest:
		a.restClient = rest.NewClient(cfg.Gallery.URL, cfg.Gallery.Timeout, zapLogger)
		artworks = rest.NewArtworkRepository(a.restClient)
		accounts = rest.NewAccountService(a.restClient)

	case config.StoreMemory:
		svc := memory.New()
		artworks = svc
		accounts = svc

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}

	a.session = session.New(accounts, store, zapLogger)
	a.catalog = catalog.New(artworks, a.session, zapLogger)

	identity, err := a.session.Restore(ctx)
	if err != nil {
		zapLogger.Warn("session restore failed", zap.Error(err))
	}
	if identity != nil && a.restClient != nil {
		a.restClient.SetToken(identity.Token)
	}
	return a, nil
}

func openLocalStore(cfg *config.Config, manager *lifecycle.Manager) (repository.KeyValueStore, error) {
	switch cfg.LocalStore {
	case config.LocalStoreBolt:
		if err := os.MkdirAll(filepath.Dir(cfg.Session.BoltPath), 0o755); err != nil {
			return nil, err
		}
		store, err := boltdb.Open(cfg.Session.BoltPath, cfg.Session.BoltBucket)
		if err != nil {
			return nil, err
		}
		manager.Register("session_store", func(ctx context.Context) error {
			return store.Close()
		})
		return store, nil

	case config.LocalStoreRedis:
		client, err := redisInfra.Connect(cfg.Redis)
		if err != nil {
			return nil, err
		}
		manager.Register("redis", func(ctx context.Context) error {
			return client.Close()
		})
		return redisRepo.NewKeyValueStore(client, cfg.AppName+":"), nil

	default:
		return nil, fmt.Errorf("unknown local store %q", cfg.LocalStore)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "signup":
		return a.cmdSignUp(ctx, args)
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		return a.session.Logout(ctx)
	case "whoami":
		return a.cmdWhoAmI()
	case "list":
		return a.cmdList(ctx, args)
	case "create":
		return a.cmdCreate(ctx, args)
	case "update":
		return a.cmdUpdate(ctx, args)
	case "delete":
		return a.cmdDelete(ctx, args)
	case "view":
		return a.cmdIncrement(ctx, args, "view")
	case "like":
		return a.cmdIncrement(ctx, args, "like")
	case "stats":
		return a.cmdStats(ctx)
	default:
		fmt.Println(usageText)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) cmdSignUp(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	name := fs.String("name", "", "display name (defaults to the email local part)")
	fs.Parse(args)

	identity, err := a.session.SignUp(ctx, *email, *password, *name)
	if err != nil {
		return err
	}
	a.syncToken(identity)
	fmt.Printf("signed up as %s <%s>\n", identity.DisplayName(), identity.Email)
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	identity, err := a.session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	a.syncToken(identity)
	fmt.Printf("signed in as %s <%s>\n", identity.DisplayName(), identity.Email)
	return nil
}

func (a *app) cmdWhoAmI() error {
	identity := a.session.Identity()
	if identity == nil {
		fmt.Println("not signed in")
		return nil
	}
	fmt.Printf("%s <%s> (id %s)\n", identity.DisplayName(), identity.Email, identity.ID)
	return nil
}

func (a *app) cmdList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	category := fs.String("category", "", "filter by category: "+categoryHint())
	fs.Parse(args)

	var (
		view []domain.Artwork
		err  error
	)
	if *category != "" {
		cat, parseErr := domain.ParseCategory(*category)
		if parseErr != nil {
			return parseErr
		}
		view, err = a.catalog.SetFilter(ctx, cat)
	} else {
		view, err = a.catalog.Refresh(ctx)
	}
	if err != nil {
		return err
	}

	if len(view) == 0 {
		fmt.Println("no artworks")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tARTIST\tVIEWS\tLIKES\tCREATED")
	for _, art := range view {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			art.ID, art.Title, art.Category, art.OwnerName,
			art.Views, art.Likes, art.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func (a *app) cmdCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	title := fs.String("title", "", "artwork title")
	description := fs.String("description", "", "artwork description")
	category := fs.String("category", "", "category: "+categoryHint())
	imageURL := fs.String("image", "", "preview image URL")
	fs.Parse(args)

	draft := domain.ArtworkDraft{
		Title:       *title,
		Description: *description,
		Category:    domain.Category(*category),
		ImageURL:    *imageURL,
	}
	art, err := a.catalog.Create(ctx, draft)
	if err != nil {
		return err
	}
	fmt.Printf("created %q (id %s)\n", art.Title, art.ID)
	return nil
}

func (a *app) cmdUpdate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	id := fs.String("id", "", "artwork id")
	title := fs.String("title", "", "new title")
	description := fs.String("description", "", "new description")
	category := fs.String("category", "", "new category: "+categoryHint())
	imageURL := fs.String("image", "", "new preview image URL")
	fs.Parse(args)

	var patch domain.ArtworkPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			patch.Title = title
		case "description":
			patch.Description = description
		case "category":
			cat := domain.Category(*category)
			patch.Category = &cat
		case "image":
			patch.ImageURL = imageURL
		}
	})

	art, err := a.catalog.Update(ctx, *id, patch)
	if err != nil {
		return err
	}
	fmt.Printf("updated %q (id %s)\n", art.Title, art.ID)
	return nil
}

func (a *app) cmdDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.String("id", "", "artwork id")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	fs.Parse(args)

	if _, err := a.catalog.Refresh(ctx); err != nil {
		return err
	}

	token, err := a.catalog.RequestDelete(*id)
	if err != nil {
		return err
	}

	if !*yes && !confirm(fmt.Sprintf("delete artwork %s? [y/N] ", *id)) {
		a.catalog.CancelDelete(token)
		fmt.Println("aborted")
		return nil
	}

	if err := a.catalog.ConfirmDelete(ctx, token); err != nil {
		return err
	}
	fmt.Println("deleted")
	return nil
}

func (a *app) cmdIncrement(ctx context.Context, args []string, kind string) error {
	fs := flag.NewFlagSet(kind, flag.ExitOnError)
	id := fs.String("id", "", "artwork id")
	fs.Parse(args)

	if _, err := a.catalog.Refresh(ctx); err != nil {
		return err
	}

	var (
		art *domain.Artwork
		err error
	)
	if kind == "like" {
		art, err = a.catalog.IncrementLike(ctx, *id)
	} else {
		art, err = a.catalog.IncrementView(ctx, *id)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%q now has %d views / %d likes\n", art.Title, art.Views, art.Likes)
	return nil
}

func (a *app) cmdStats(ctx context.Context) error {
	if !a.session.IsAuthenticated() {
		return domain.ErrSignInRequired
	}
	stats, err := a.catalog.RecomputeStats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("artworks: %d\nviews:    %d\nlikes:    %d\n",
		stats.Artworks, stats.Views, stats.Likes)
	return nil
}

// syncToken forwards a fresh credential to the rest client. The postgres
// and memory backends authenticate per call, so there is nothing to sync.
func (a *app) syncToken(identity *domain.Identity) {
	if a.restClient != nil && identity != nil {
		a.restClient.SetToken(identity.Token)
	}
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func categoryHint() string {
	names := make([]string, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, "|")
}

func printError(err error) {
	var derr *domain.Error
	if errors.As(err, &derr) {
		fmt.Fprintf(os.Stderr, "error (%s): %s\n", derr.Code, derr.Message)
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}
