// Package web provides the blog's web host: routing, templates, sessions,
// static assets and the scheduled audit cleanup.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/blogblazor/blog/caching"
	"github.com/blogblazor/blog/config"
	"github.com/blogblazor/blog/logger"
	"github.com/blogblazor/blog/util/common"
	"github.com/blogblazor/blog/util/random"
	"github.com/blogblazor/blog/web/controller"
	"github.com/blogblazor/blog/web/job"
	"github.com/blogblazor/blog/web/locale"
	"github.com/blogblazor/blog/web/middleware"
	"github.com/blogblazor/blog/web/service"
	"github.com/blogblazor/blog/web/session"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

//go:embed assets
var assetsFS embed.FS

//go:embed html/*
var htmlFS embed.FS

//go:embed translation/*
var i18nFS embed.FS

var startTime = time.Now()

type wrapAssetsFS struct {
	embed.FS
}

func (f *wrapAssetsFS) Open(name string) (fs.File, error) {
	file, err := f.FS.Open("assets/" + name)
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFile{File: file}, nil
}

type wrapAssetsFile struct {
	fs.File
}

func (f *wrapAssetsFile) Stat() (fs.FileInfo, error) {
	info, err := f.File.Stat()
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFileInfo{FileInfo: info}, nil
}

type wrapAssetsFileInfo struct {
	fs.FileInfo
}

func (f *wrapAssetsFileInfo) ModTime() time.Time {
	return startTime
}

// Options configures a Server. OptionsFromEnv fills it from the environment.
type Options struct {
	Listen   string
	Port     int
	BasePath string

	SessionSecret string
	// SessionMaxAge is in minutes.
	SessionMaxAge int
	JWTSecret     string
	TokenTTL      time.Duration

	LoginMaxAttempts   int
	LoginWindow        time.Duration
	AuditRetentionDays int
}

func OptionsFromEnv() Options {
	return Options{
		Listen:             config.GetListen(),
		Port:               config.GetPort(),
		BasePath:           config.GetBasePath(),
		SessionSecret:      config.GetSessionSecret(),
		SessionMaxAge:      config.GetSessionMaxAge(),
		JWTSecret:          config.GetJWTSecret(),
		TokenTTL:           12 * time.Hour,
		LoginMaxAttempts:   config.GetLoginMaxAttempts(),
		LoginWindow:        15 * time.Minute,
		AuditRetentionDays: config.GetAuditRetentionDays(),
	}
}

// Services bundles the application services built over one database.
type Services struct {
	Identity *service.GormIdentityStore
	Articles *service.ArticleService
	Admin    *service.AdminService
	Users    *service.UserService
	Auth     *service.AuthService
	Audit    *service.AuditLogService
}

// NewServices wires the services over db. jwtSecret signs API tokens.
func NewServices(db *gorm.DB, jwtSecret []byte, tokenTTL time.Duration) *Services {
	identity := service.NewIdentityStore(db)
	articles := service.NewArticleService(db, identity, service.NewSanitizer())
	users := service.NewUserService(identity)
	return &Services{
		Identity: identity,
		Articles: articles,
		Admin:    service.NewAdminService(identity, articles),
		Users:    users,
		Auth:     service.NewAuthService(users, identity, jwtSecret, tokenTTL),
		Audit:    service.NewAuditLogService(db),
	}
}

// Server represents the blog web host with its controllers, services and scheduled jobs.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	opts     Options
	services *Services

	index    *controller.IndexController
	articles *controller.ArticleController
	api      *controller.APIController
	admin    *controller.UserAdminController
	audit    *controller.AuditController

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a web server over db. Empty secrets are replaced with
// random ones, which invalidates sessions and tokens on every restart.
func NewServer(db *gorm.DB, opts Options) *Server {
	if opts.SessionSecret == "" {
		logger.Warning("BLOG_SESSION_SECRET is not set, sessions will not survive a restart")
		opts.SessionSecret = random.Seq(32)
	}
	if opts.JWTSecret == "" {
		logger.Warning("BLOG_JWT_SECRET is not set, API tokens will not survive a restart")
		opts.JWTSecret = random.Seq(32)
	}
	if opts.BasePath == "" {
		opts.BasePath = "/"
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 12 * time.Hour
	}
	if opts.LoginWindow <= 0 {
		opts.LoginWindow = 15 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		opts:     opts,
		services: NewServices(db, []byte(opts.JWTSecret), opts.TokenTTL),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Services returns the services the server routes to.
func (s *Server) Services() *Services { return s.services }

// getHtmlFiles walks the local `web/html` directory and returns a list of
// template file paths. Used only in debug/development mode.
func (s *Server) getHtmlFiles() ([]string, error) {
	files := make([]string, 0)
	dir, _ := os.Getwd()
	err := fs.WalkDir(os.DirFS(dir), "web/html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// getHtmlTemplate parses embedded HTML templates from the bundled `htmlFS`.
func (s *Server) getHtmlTemplate(funcMap template.FuncMap) (*template.Template, error) {
	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(htmlFS, "html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			newT, err := t.ParseFS(htmlFS, path+"/*.html")
			if err != nil {
				// ignore folders without matches
				return nil
			}
			t = newT
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// initRouter initializes Gin, registers middleware, templates, static assets,
// controllers and returns the configured engine.
func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()
	basePath := s.opts.BasePath

	if err := locale.InitLocalizer(i18nFS); err != nil {
		return nil, err
	}

	engine.Use(middleware.RequestID())
	// gzip, excluding API paths so JSON clients get plain bodies
	engine.Use(gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{basePath + "api/", basePath + "panel/api/"}),
	))

	store := cookie.NewStore([]byte(s.opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     basePath,
		MaxAge:   s.opts.SessionMaxAge * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	engine.Use(sessions.Sessions(session.CookieName, store))
	engine.Use(locale.LocalizerMiddleware())
	engine.Use(func(c *gin.Context) {
		c.Set("base_path", basePath)
	})
	engine.Use(middleware.LoadUser(s.services.Admin, s.services.Auth))
	engine.Use(middleware.AuditMiddleware(s.services.Audit))
	// Redirects (/Articles -> /articles etc.)
	engine.Use(middleware.RedirectMiddleware(basePath))

	funcMap := controller.FuncMap()
	engine.SetFuncMap(funcMap)

	// Static files & templates
	if config.IsDebug() {
		files, err := s.getHtmlFiles()
		if err != nil {
			return nil, err
		}
		engine.LoadHTMLFiles(files...)
		engine.StaticFS(basePath+"assets", http.FS(os.DirFS("web/assets")))
	} else {
		tpl, err := s.getHtmlTemplate(funcMap)
		if err != nil {
			return nil, err
		}
		engine.SetHTMLTemplate(tpl)
		engine.StaticFS(basePath+"assets", http.FS(&wrapAssetsFS{FS: assetsFS}))
	}

	loginFailures := caching.NewCache(s.opts.LoginWindow)

	g := engine.Group(basePath)
	api := engine.Group(basePath + "panel/api")

	s.index = controller.NewIndexController(g, s.services.Users, s.services.Audit, controller.IndexOptions{
		LoginFailures: loginFailures,
		MaxAttempts:   s.opts.LoginMaxAttempts,
		SessionMaxAge: s.opts.SessionMaxAge,
	})
	s.articles = controller.NewArticleController(g, s.services.Articles)
	s.api = controller.NewAPIController(g, s.services.Articles, s.services.Auth, loginFailures, s.opts.LoginMaxAttempts)
	s.admin = controller.NewUserAdminController(g, api, s.services.Admin)
	s.audit = controller.NewAuditController(g, api, s.services.Audit)

	// 404 handler
	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})

	return engine, nil
}

// startTask schedules background jobs.
func (s *Server) startTask() {
	if s.opts.AuditRetentionDays > 0 {
		_, err := s.cron.AddJob("@daily", job.NewAuditCleanupJob(s.services.Audit, s.opts.AuditRetentionDays))
		if err != nil {
			logger.Warning("Add audit cleanup job failed:", err)
		}
	}
}

// Start initializes and starts the web server.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	s.cron = cron.New(cron.WithLocation(time.UTC))
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(s.opts.Listen, strconv.Itoa(s.opts.Port))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	logger.Info("Web server running HTTP on", listener.Addr())

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server stopped:", err)
		}
	}()

	s.startTask()
	return nil
}

// Stop gracefully shuts down the web server and the cron scheduler.
func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	var err1 error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err1 = s.httpServer.Shutdown(ctx)
	}
	var err2 error
	if s.listener != nil {
		// Shutdown already closed it
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			err2 = err
		}
	}
	return common.Combine(err1, err2)
}

// GetCtx returns the server's context.
func (s *Server) GetCtx() context.Context { return s.ctx }

// GetCron returns the server's cron scheduler instance.
func (s *Server) GetCron() *cron.Cron { return s.cron }
