package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/MicahParks/keyfunc"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/maikmano/zentask/api"
	"github.com/maikmano/zentask/command"
	"github.com/maikmano/zentask/identity"
	"github.com/maikmano/zentask/insight"
	"github.com/maikmano/zentask/session"
	"github.com/maikmano/zentask/storage"
	"github.com/maikmano/zentask/updater"
)

func main() {
	_ = godotenv.Load()
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.StandardLogger()

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	if connStr == "" {
		log.Fatal("missing storage config")
	}
	redisConn := os.Getenv("REDIS_CONNECTION_STRING")
	if redisConn == "" {
		log.Fatal("missing redis config")
	}
	uiToken := os.Getenv("UI_TOKEN")
	if uiToken == "" {
		log.Fatal("missing UI token")
	}
	channel := os.Getenv("CHANGE_CHANNEL")
	if channel == "" {
		channel = "zentask:changes"
	}

	redisOpts, err := redis.ParseURL(redisConn)
	if err != nil {
		parts := strings.Split(redisConn, ",")
		redisOpts = &redis.Options{Addr: parts[0]}
		for _, p := range parts[1:] {
			kv := strings.SplitN(p, "=", 2)
			if len(kv) != 2 {
				continue
			}
			switch strings.ToLower(kv[0]) {
			case "password":
				redisOpts.Password = kv[1]
			case "ssl":
				if strings.ToLower(kv[1]) == "true" {
					redisOpts.TLSConfig = &tls.Config{}
				}
			}
		}
	}
	rc := redis.NewClient(redisOpts)

	tables := storage.Tables{
		Boards:  envOr("BOARDS_TABLE", "boards"),
		Columns: envOr("COLUMNS_TABLE", "columns"),
		Tasks:   envOr("TASKS_TABLE", "tasks"),
		Notes:   envOr("NOTES_TABLE", "notes"),
		Users:   envOr("USERS_TABLE", "users"),
	}
	store, err := storage.New(connStr, tables, rc, channel)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	verifier, err := buildVerifier()
	if err != nil {
		log.Fatalf("identity: %v", err)
	}
	signInURL := os.Getenv("IDENTITY_SIGNIN_URL")
	signUpURL := os.Getenv("IDENTITY_SIGNUP_URL")
	if signInURL == "" || signUpURL == "" {
		log.Fatal("missing identity provider config")
	}
	provider := identity.NewProvider(signInURL, signUpURL, verifier)
	gate := identity.NewGate()

	var shell updater.Shell = updater.NopShell{}
	if controlURL := os.Getenv("SHELL_CONTROL_URL"); controlURL != "" {
		shell = updater.NewShellClient(controlURL, os.Getenv("SHELL_TOKEN"))
	}

	var srv *api.Server
	notify := func() {
		if srv != nil {
			srv.NotifyChanged()
		}
	}

	state := session.NewState(notify)
	router := session.NewRouter(state, notify)
	cmds := command.New(log.NewEntry(logger), store, gate, state)
	boot := session.NewBootstrapper(log.NewEntry(logger), store)
	updates := updater.NewManager(log.NewEntry(logger), shell, notify)
	insights := insight.NewClient(log.NewEntry(logger), os.Getenv("GEMINI_API_KEY"))

	coordinator := session.NewCoordinator(
		log.NewEntry(logger), rc, channel, store, gate, state, router, boot,
	)

	srv = api.New(api.Config{
		Log:        logger,
		Token:      uiToken,
		ShellToken: os.Getenv("SHELL_TOKEN"),
		Gate:       gate,
		Provider:   provider,
		State:      state,
		Router:     router,
		Commands:   cmds,
		Insights:   insights,
		Updates:    updates,
	})

	ctx := context.Background()
	coordinator.Start(ctx)
	defer coordinator.Stop()

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	srv.Register(e)

	listenAddr := "127.0.0.1:9000"
	if val, ok := os.LookupEnv("GATEWAY_PORT"); ok {
		listenAddr = "127.0.0.1:" + val
	}
	e.Logger.Fatal(e.Start(listenAddr))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func buildVerifier() (*identity.Verifier, error) {
	if secret := os.Getenv("IDENTITY_TEST_SECRET"); secret != "" {
		log.Warn("using HS256 test verifier")
		return identity.NewTestVerifier([]byte(secret)), nil
	}
	audience := os.Getenv("AUTH0_AUDIENCE")
	domain := os.Getenv("AUTH0_DOMAIN")
	if audience == "" || domain == "" {
		return nil, fmt.Errorf("missing Auth0 config")
	}
	jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domain)
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
	if err != nil {
		return nil, fmt.Errorf("jwks: %w", err)
	}
	return identity.NewVerifier(jwks, audience, "https://"+domain+"/"), nil
}
