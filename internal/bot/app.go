// Package bot wires the relay onto the Telegram runtime: configuration,
// storage selection, command and callback handlers, and the telebot-backed
// transport.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/m3rciful/relaybot/core/bootstrap"
	"github.com/m3rciful/relaybot/core/cmd"
	tg "github.com/m3rciful/relaybot/core/telegram"
	"github.com/m3rciful/relaybot/core/telegram/router"
	"github.com/m3rciful/relaybot/core/telegram/state"
	"github.com/m3rciful/relaybot/internal/admin"
	"github.com/m3rciful/relaybot/internal/conversation"
	"github.com/m3rciful/relaybot/internal/directory"
	"github.com/m3rciful/relaybot/internal/moderation"
	"github.com/m3rciful/relaybot/internal/transport"

	tele "gopkg.in/telebot.v4"
)

// App holds the wired relay.
type App struct {
	cfg      *Config
	repo     *directory.Repository
	gate     *moderation.Gate
	outbox   *Outbox
	out      transport.Transport
	router   *conversation.Router
	admin    *admin.Service
	registry *tg.Registry

	registerOnce sync.Once
	registerErr  error
	closeFn      func() error
}

// AppOption customizes New.
type AppOption func(*App)

// WithTransport replaces the telebot outbox, mainly for tests.
func WithTransport(t transport.Transport) AppOption {
	return func(a *App) { a.out = t }
}

// WithCloser registers a release function run by Close.
func WithCloser(fn func() error) AppOption {
	return func(a *App) { a.closeFn = fn }
}

// New wires the relay around repo.
func New(cfg *Config, repo *directory.Repository, opts ...AppOption) *App {
	a := &App{
		cfg:      cfg,
		repo:     repo,
		gate:     moderation.NewGate(repo),
		outbox:   &Outbox{},
		registry: tg.NewRegistry(),
	}
	a.out = a.outbox
	for _, opt := range opts {
		opt(a)
	}
	a.router = conversation.NewRouter(repo, a.gate, a.out, conversation.WithStates(state.NewMemoryManager()))
	a.admin = admin.NewService(repo, a.out)
	return a
}

// Bootstrap initializes logging and storage, seeds the initial admins and
// returns the runnable app.
func Bootstrap(ctx context.Context, carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("bot: unexpected config type %T", carrier)
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options[*directory.Repository]{
		Config: cfg.CoreConfig(),
		OpenStorage: func(ctx context.Context) (*directory.Repository, func() error, error) {
			store, closeFn, err := OpenStore(ctx, cfg)
			if err != nil {
				return nil, nil, err
			}
			return directory.NewRepository(store, directory.WithDefaultWelcome(cfg.Relay.DefaultWelcome)), closeFn, nil
		},
		Seeders: []bootstrap.Seeder[*directory.Repository]{
			bootstrap.SeederFunc[*directory.Repository](SeedAdmins(cfg.Telegram.InitialAdmins)),
		},
	})
	if err != nil {
		return nil, err
	}
	return New(cfg, res.Storage, WithCloser(res.Close)), nil
}

// LoadCarrier adapts LoadConfig to cmd.Options.
func LoadCarrier(path string) (cmd.ConfigCarrier, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *App) register() error {
	a.registerOnce.Do(func() {
		var errs []error
		for name, def := range a.commandTable() {
			errs = append(errs, a.registry.RegisterCommand(name, def))
		}
		errs = append(errs,
			a.registry.RegisterCallback(conversation.ActionStartConversation, a.handleSendMessage),
			a.registry.RegisterCallback(conversation.ActionBindReply, a.handleReply),
		)
		a.registry.SetTextFallback(a.handleText)
		a.registerErr = errors.Join(errs...)
	})
	return a.registerErr
}

// TelegramRunOptions registers handlers and describes how to run the bot.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	if err := a.register(); err != nil {
		return tg.RunOptions{}, err
	}
	core := a.cfg.CoreConfig()

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		IsAdmin: a.gate.IsAdmin,
		OnAdminReject: func(tele.Context) error {
			return router.Skip("not_admin")
		},
		OnAdminError: func(c tele.Context, err error) error {
			_ = a.reply(c, msgStorageError)
			return err
		},
	})
	routes = append(routes, router.CallbackRoute(a.registry), router.TextRoute(a.registry))

	return tg.RunOptions{
		Config:   core,
		Registry: a.registry,
		Middlewares: tg.DefaultMiddlewares(core, tg.MiddlewareHooks{
			IsBlocked: a.gate.IsBlocked,
		}),
		Routes: routes,
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			if rt.Bot != nil {
				a.outbox.Bind(rt.Bot, rt.Dispatcher)
			}
			return nil
		},
	}, nil
}

// Close unbinds the outbox and releases storage. It runs after the
// dispatcher has drained, so queued notices still reach the bot.
func (a *App) Close() error {
	a.outbox.Bind(nil, nil)
	if a.closeFn == nil {
		return nil
	}
	return a.closeFn()
}
