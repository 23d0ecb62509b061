package di

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-team-directory/cache"
	"github.com/goliatone/go-team-directory/client"
	"github.com/goliatone/go-team-directory/config"
	"github.com/goliatone/go-team-directory/detail"
	"github.com/goliatone/go-team-directory/directory"
	"github.com/goliatone/go-team-directory/form"
	"github.com/goliatone/go-team-directory/logging"
	"github.com/goliatone/go-team-directory/member"
	"github.com/goliatone/go-team-directory/membercache"
	"github.com/goliatone/go-team-directory/modal"
)

// Container holds the components of one application session: one cache,
// one collection client, one cached collection and one list controller.
// Forms and detail pages are created on demand, already wired to refresh
// the list.
type Container struct {
	config        config.Config
	logger        zerolog.Logger
	httpClient    *http.Client
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	client        *client.Client
	collection    *membercache.CachedCollection
	directory     *directory.Controller
	addDialog     *modal.Dialog
}

// Option configures a Container.
type Option func(*Container)

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Container) {
		c.logger = logger
	}
}

// WithHTTPClient makes the collection client use hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Container) {
		c.httpClient = hc
	}
}

// NewContainer wires a session from cfg.
func NewContainer(cfg config.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return nil, err
	}

	c := &Container{config: cfg, logger: logger}
	for _, opt := range opts {
		opt(c)
	}

	cacheService, err := cache.NewCacheService(cfg.CacheConfig())
	if err != nil {
		return nil, err
	}
	c.cacheService = cacheService
	c.keySerializer = cache.NewHashedKeySerializer(cfg.Cache.KeySegmentMax)

	clientOpts := []client.Option{
		client.WithPath(cfg.MembersPath),
		client.WithTimeout(cfg.Timeout),
		client.WithTotalHeader(cfg.TotalHeader),
		client.WithUserAgent(cfg.UserAgent),
		client.WithQueryParams(client.QueryParams{
			Page:   cfg.PageParam,
			Limit:  cfg.LimitParam,
			Search: cfg.SearchParam,
		}),
		client.WithLogger(c.logger.With().Str("layer", "client").Logger()),
	}
	if c.httpClient != nil {
		clientOpts = append(clientOpts, client.WithHTTPClient(c.httpClient))
	}
	c.client = client.New(cfg.BaseURL, clientOpts...)

	c.collection = membercache.New(c.client, c.cacheService, c.keySerializer,
		membercache.WithNamespace("Member"),
		membercache.WithRegistryLimit(cfg.Cache.Capacity),
		membercache.WithLogger(c.logger.With().Str("layer", "cache").Logger()),
	)

	c.directory = directory.New(c.collection,
		directory.WithPageSize(cfg.PageSize),
		directory.WithLogger(c.logger.With().Str("layer", "directory").Logger()),
	)

	c.addDialog = modal.NewDialog("add-member", modal.WithLogger(c.logger))

	return c, nil
}

// NewContainerFromEnv loads the configuration from the environment and
// wires a session from it.
func NewContainerFromEnv(opts ...Option) (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewContainer(*cfg, opts...)
}

// Config returns a copy of the session configuration.
func (c *Container) Config() config.Config {
	return c.config
}

// Logger returns the session logger.
func (c *Container) Logger() zerolog.Logger {
	return c.logger
}

// CacheService returns the singleton cache service instance.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// KeySerializer returns the singleton key serializer instance.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Client returns the uncached collection client.
func (c *Container) Client() *client.Client {
	return c.client
}

// Collection returns the cached collection every component reads through.
func (c *Container) Collection() *membercache.CachedCollection {
	return c.collection
}

// Directory returns the list controller of the session.
func (c *Container) Directory() *directory.Controller {
	return c.directory
}

// AddDialog returns the dialog hosting the create form.
func (c *Container) AddDialog() *modal.Dialog {
	return c.addDialog
}

// NewCreateForm returns a create form bound to the add dialog. A successful
// submission notifies the list controller, which moves to the new record's
// page.
func (c *Container) NewCreateForm(opts ...form.Option) *form.Form {
	base := []form.Option{
		form.WithDialog(c.addDialog),
		form.WithLogger(c.logger.With().Str("layer", "form").Logger()),
		form.WithOnSuccess(func(ctx context.Context, m member.Member) {
			if err := c.directory.MemberCreated(ctx, m); err != nil {
				c.logger.Warn().Err(err).Msg("list refresh after create failed")
			}
		}),
	}
	return form.New(c.collection.Create, append(base, opts...)...)
}

// NewDetail returns the detail page for id. nav may be nil.
func (c *Container) NewDetail(id member.ID, nav detail.Navigator, opts ...detail.Option) *detail.Controller {
	base := []detail.Option{
		detail.WithListRefresher(c.directory),
		detail.WithLogger(c.logger.With().Str("layer", "detail").Logger()),
	}
	if nav != nil {
		base = append(base, detail.WithNavigator(nav))
	}
	return detail.New(c.collection, id, append(base, opts...)...)
}

// Close ends the session: the list stops reacting to in-flight responses
// and the add dialog is released.
func (c *Container) Close() {
	c.directory.Close()
	c.addDialog.Close()
}
