package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"sylvectl/internal/api"
	"sylvectl/internal/cache"
	"sylvectl/internal/config"
	"sylvectl/internal/credentials"
	"sylvectl/internal/loader"
	"sylvectl/internal/ratelimit"
	"sylvectl/internal/session"
	"sylvectl/internal/shutdown"
	"sylvectl/internal/utils"
	"sylvectl/sylve"
)

// cleanupTimeout bounds how long closing the cache store may take on exit.
const cleanupTimeout = 5 * time.Second

// app is the state shared by the commands of one invocation. Connections
// are opened lazily so commands like `config show` work without a server.
type app struct {
	cfg    *Config
	stdout io.Writer
	stderr io.Writer

	conf       *config.Config
	configPath string
	log        *utils.Logger
	jsonOutput bool
	noCache    bool
	mgr        *shutdown.Manager

	sessions *session.Store
	session  *session.Session
	client   *sylve.Client
	cache    *cache.Cache
	throttle *ratelimit.Stats

	expireOnce sync.Once
}

func newApp(stdout, stderr io.Writer, cfg *Config) *app {
	if cfg == nil {
		cfg = &Config{}
	}
	return &app{cfg: cfg, stdout: stdout, stderr: stderr, log: utils.NewLogger(stderr, false)}
}

// setup loads the config and binds the command context to signals.
func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	if path == "" {
		path = a.cfg.ConfigPath
	}
	if path == "" {
		path = config.DefaultPath()
	}
	server, _ := flags.GetString("server")
	jsonOutput, _ := flags.GetBool("json")
	verbose, _ := flags.GetBool("verbose")
	a.noCache, _ = flags.GetBool("no-cache")
	a.jsonOutput = jsonOutput

	a.log = utils.NewLogger(a.stderr, verbose)
	utils.SetVerboseMode(verbose)

	conf, err := config.Load(path)
	if err != nil {
		return err
	}
	conf.ApplyFlags(server, jsonOutput)
	if err := conf.Validate(); err != nil {
		return utils.WrapWithSuggestion(err, "Fix "+path+" or run 'sylvectl config init --force'")
	}
	a.conf = conf
	a.configPath = path
	a.jsonOutput = conf.OutputFormat == "json"

	a.mgr = shutdown.NewManager(cmd.Context())
	a.mgr.SetLogger(a.log)
	if !a.cfg.NoSignals {
		a.mgr.Listen()
	}
	cmd.SetContext(a.mgr.Context())
	return nil
}

// close runs the registered cleanups.
func (a *app) close() {
	if a.mgr == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if err := a.mgr.Wait(ctx); err != nil {
		a.log.Warn("cleanup: %v", err)
	}
}

func (a *app) interrupted() bool {
	return a.mgr != nil && a.mgr.Interrupted()
}

func (a *app) serverURL() (string, error) {
	server := a.conf.ServerURL()
	if server == "" {
		return "", utils.ErrServerNotConfigured()
	}
	return server, nil
}

func (a *app) credentials() *credentials.Manager {
	var opts []credentials.ManagerOption
	if a.cfg.Keyring != nil {
		opts = append(opts, credentials.WithKeyring(a.cfg.Keyring))
	}
	if a.cfg.Getenv != nil {
		opts = append(opts, credentials.WithEnv(a.cfg.Getenv))
	}
	return credentials.NewManager(opts...)
}

func (a *app) sessionStore() *session.Store {
	if a.sessions == nil {
		a.sessions = session.NewStore(a.credentials())
	}
	return a.sessions
}

// newAPIClient builds an executor client from the config. s may be nil.
func (a *app) newAPIClient(server string, s api.Session) (*api.Client, error) {
	fallback, err := api.ParseFallbackPolicy(a.conf.GetFallback())
	if err != nil {
		return nil, err
	}
	retries := a.conf.GetMaxRetries()
	if retries == 0 {
		// The rate limiter reads 0 as "use the default".
		retries = -1
	}
	if a.throttle == nil {
		a.throttle = ratelimit.NewStats()
		a.mgr.RegisterCleanup("throttle report", a.reportThrottling)
	}
	return api.NewClient(api.Config{
		BaseURL:    server,
		Timeout:    a.conf.GetTimeout(),
		MaxRetries: retries,
		BaseDelay:  a.conf.GetBaseDelay(),
		Fallback:   fallback,
		HTTPClient: a.cfg.HTTPClient,
		Logger:     a.log,
		Stats:      a.throttle,
	}, s)
}

// reportThrottling tells the user when 429/503 responses cost them data.
func (a *app) reportThrottling(context.Context) error {
	retried, exhausted := a.throttle.RateLimitCount(), a.throttle.ExhaustedCount()
	switch {
	case exhausted > 0:
		a.log.Warn("server throttled %d request(s) past the retry limit (%d retried); "+
			"try again later or raise retry.max_retries", exhausted, retried)
	case retried > 0:
		a.log.Debug("server throttled %d request(s), all recovered after retrying", retried)
	}
	return nil
}

// connect loads the stored session and builds the Sylve client.
func (a *app) connect(ctx context.Context) error {
	if a.client != nil {
		return nil
	}
	server, err := a.serverURL()
	if err != nil {
		return err
	}

	s, err := a.sessionStore().Load(ctx, server)
	if errors.Is(err, session.ErrNoSession) {
		return utils.ErrNotLoggedIn(server)
	}
	if err != nil {
		return err
	}
	if !s.LoggedIn() {
		return utils.ErrSessionExpired()
	}
	if host := a.conf.Server.Hostname; host != "" {
		s.SetHostname(host)
	}

	c, err := a.newAPIClient(server, s)
	if err != nil {
		return err
	}
	c.OnAuthExpired(a.sessionExpired)

	a.session = s
	a.client = sylve.New(c)
	return nil
}

// sessionExpired drops the rejected session so the next command asks for a
// fresh login.
func (a *app) sessionExpired(e *api.Error) {
	a.expireOnce.Do(func() {
		a.log.Error("[%s] %s %s rejected the session", e.RequestID, e.Method, e.Endpoint)
		if err := a.sessionStore().Clear(context.Background(), a.session.Server()); err != nil {
			a.log.Warn("failed to clear session: %v", err)
		}
		a.log.Print("Session expired, please login again")
	})
}

// openCache opens the configured store once per invocation.
func (a *app) openCache() (*cache.Cache, error) {
	if a.cache != nil {
		return a.cache, nil
	}
	store, err := cache.Open(a.conf.GetCacheStore(), a.conf.GetCachePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	if closer, ok := store.(io.Closer); ok {
		a.mgr.RegisterCleanup("cache store", func(context.Context) error {
			return closer.Close()
		})
	}

	opts := []cache.Option{cache.WithLogger(a.log)}
	if a.noCache {
		opts = append(opts, cache.Disabled())
	}
	a.cache = cache.New(store, opts...)
	return a.cache, nil
}

// pageLoader connects and returns a loader over the configured cache.
func (a *app) pageLoader(ctx context.Context) (*loader.Loader, error) {
	if err := a.connect(ctx); err != nil {
		return nil, err
	}
	c, err := a.openCache()
	if err != nil {
		return nil, err
	}
	return loader.New(a.client, c,
		loader.WithLogger(a.log),
		loader.WithWindow(a.conf.GetCacheTTL()),
		loader.WithGuestsWindow(a.conf.GetGuestsTTL()),
	), nil
}

// userError turns an executor error into a message with a suggestion.
func (a *app) userError(op string, err error) error {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Kind {
	case api.KindAuthExpired:
		return utils.ErrSessionExpired()
	case api.KindTransport:
		reason := apiErr.Error()
		if apiErr.Err != nil {
			reason = apiErr.Err.Error()
		}
		return utils.ErrServerUnreachable(a.conf.ServerURL(), reason)
	case api.KindEnvelope:
		return utils.ErrAPIFailure(op, apiErr.Code, apiErr.Message)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// fatal reports whether a page error leaves nothing worth printing.
func fatal(err error) bool {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return err != nil
	}
	return apiErr.Kind == api.KindTransport || apiErr.Kind == api.KindAuthExpired
}

// pageResult decides what a partially loaded page means for the command.
// Partial failures are logged and the fallback values are shown.
func (a *app) pageResult(page string, err error) error {
	if err == nil {
		return nil
	}
	if fatal(err) {
		return a.userError("load "+page, err)
	}
	a.log.Warn("some %s data could not be loaded: %v", page, err)
	return nil
}
