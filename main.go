package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/blogblazor/blog/config"
	"github.com/blogblazor/blog/database"
	"github.com/blogblazor/blog/logger"
	"github.com/blogblazor/blog/web"
	"github.com/blogblazor/blog/web/client"
	"github.com/blogblazor/blog/web/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func initLogger() {
	level, err := logger.ParseLevel(config.GetLogLevel())
	if err != nil {
		log.Fatal(err)
	}
	logger.InitLogger(level)
}

func openDB() (*gorm.DB, error) {
	return database.InitDB(config.GetDatabaseConfig())
}

// seed runs the environment-driven bootstrap and logs its report.
func seed(ctx context.Context, db *gorm.DB) *service.SeedReport {
	services := web.NewServices(db, nil, 0)
	seeder := service.NewSeeder(services.Identity, services.Articles)
	return seeder.Seed(ctx, config.GetAdminSeed(), config.GetContributorSeed())
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())
	initLogger()

	db, err := openDB()
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := database.CloseDB(db); err != nil {
			logger.Warning("close database:", err)
		}
	}()

	if report := seed(context.Background(), db); report.Failed() {
		logger.Warning("seeding finished with failures, continuing")
	}

	server := web.NewServer(db, web.OptionsFromEnv())
	if err := server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			logger.Info("reloading web server")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer(db, web.OptionsFromEnv())
			if err := server.Start(); err != nil {
				log.Println(err)
				return
			}
		default:
			logger.Info("shutting down on", sig)
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func migrateDb() {
	initLogger()
	db, err := openDB()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := database.CloseDB(db); err != nil {
		fmt.Println(err)
	}
	fmt.Println("migration finished")
}

func seedDb() {
	initLogger()
	db, err := openDB()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	report := seedAndClose(context.Background(), db)
	fmt.Println(report.String())
	if report.Failed() {
		os.Exit(2)
	}
}

// seedAndClose seeds db and closes it, so the WAL is checkpointed even when
// the caller exits on a failed report.
func seedAndClose(ctx context.Context, db *gorm.DB) *service.SeedReport {
	report := seed(ctx, db)
	if err := database.CloseDB(db); err != nil {
		fmt.Println(err)
	}
	return report
}

func showArticles(apiURL string, maxItems int, id int) {
	c := client.NewArticleClient(apiURL)
	ctx := context.Background()

	if id > 0 {
		article, found, err := c.GetArticleById(ctx, id)
		if err != nil {
			fmt.Println("get article failed:", err)
			os.Exit(1)
		}
		if !found {
			fmt.Printf("article %d not found\n", id)
			os.Exit(1)
		}
		fmt.Printf("%d\t%s\t%s\n", article.ArticleId, article.Title, article.ContributorUsername)
		fmt.Printf("%s .. %s\n\n%s\n", article.StartDate.Format("2006-01-02 15:04"), article.EndDate.Format("2006-01-02 15:04"), article.Body)
		return
	}

	articles, err := c.GetArticles(ctx, maxItems)
	if err != nil {
		fmt.Println("list articles failed:", err)
		os.Exit(1)
	}
	for _, a := range articles {
		fmt.Printf("%d\t%s\t%s\t%s\n", a.ArticleId, a.Title, a.ContributorUsername, a.CreateDate.Format("2006-01-02"))
	}
}

// withAdmin opens the database and hands an AdminService to fn. The process
// exits with status 1 after closing the database when fn reports failure.
func withAdmin(fn func(ctx context.Context, admin *service.AdminService) bool) {
	initLogger()
	db, err := openDB()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	ok := fn(context.Background(), web.NewServices(db, nil, 0).Admin)
	if err := database.CloseDB(db); err != nil {
		fmt.Println(err)
	}
	if !ok {
		os.Exit(1)
	}
}

func listUsers() {
	withAdmin(func(ctx context.Context, admin *service.AdminService) bool {
		for _, u := range admin.ListUsersWithRoles(ctx) {
			fmt.Printf("%s\t%s %s\t%s\n", u.User.Username, u.User.FirstName, u.User.LastName, strings.Join(u.Roles, ","))
		}
		return true
	})
}

func setContributor(username string, enabled bool) {
	withAdmin(func(ctx context.Context, admin *service.AdminService) bool {
		if !admin.SetContributorRole(ctx, username, enabled) {
			fmt.Println("update role failed")
			return false
		}
		fmt.Printf("contributor role of %s set to %v\n", username, enabled)
		return true
	})
}

func banUser(username string) {
	withAdmin(func(ctx context.Context, admin *service.AdminService) bool {
		if !admin.BanUser(ctx, username) {
			fmt.Println("ban failed")
			return false
		}
		fmt.Printf("%s banned\n", username)
		return true
	})
}

func main() {
	var envFiles []string

	var rootCmd = &cobra.Command{
		Use:   "blog",
		Short: "Blog publishing platform",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := config.LoadEnv(envFiles...); err != nil {
				fmt.Println("load env:", err)
				os.Exit(1)
			}
		},
	}
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", []string{".env"}, "env files to load before reading configuration")

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDb()
		},
	}

	var seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Create the roles, bootstrap accounts and sample article from the environment",
		Run: func(cmd *cobra.Command, args []string) {
			seedDb()
		},
	}

	var articlesCmd = &cobra.Command{
		Use:   "articles",
		Short: "Read articles from a running blog's REST API",
		Run: func(cmd *cobra.Command, args []string) {
			apiURL, _ := cmd.Flags().GetString("api")
			maxItems, _ := cmd.Flags().GetInt("max")
			id, _ := cmd.Flags().GetInt("id")
			showArticles(apiURL, maxItems, id)
		},
	}
	articlesCmd.Flags().String("api", "http://localhost:8080/", "base URL of the blog")
	articlesCmd.Flags().Int("max", client.DefaultMaxItems, "maximum number of articles to list")
	articlesCmd.Flags().Int("id", 0, "show a single article")

	var usersCmd = &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}

	var listCmd = &cobra.Command{
		Use:   "list",
		Short: "List users with their roles",
		Run: func(cmd *cobra.Command, args []string) {
			listUsers()
		},
	}

	var contributorCmd = &cobra.Command{
		Use:   "contributor <username>",
		Short: "Grant or revoke the Contributor role",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			revoke, _ := cmd.Flags().GetBool("revoke")
			setContributor(args[0], !revoke)
		},
	}
	contributorCmd.Flags().Bool("revoke", false, "revoke instead of grant")

	var banCmd = &cobra.Command{
		Use:   "ban <username>",
		Short: "Delete a user and all of their articles",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			banUser(args[0])
		},
	}

	usersCmd.AddCommand(listCmd, contributorCmd, banCmd)
	rootCmd.AddCommand(runCmd, migrateCmd, seedCmd, articlesCmd, usersCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
