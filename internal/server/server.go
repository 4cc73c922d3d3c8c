package server

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/eskrenkovic/wager-rooms/internal/config"
	"github.com/eskrenkovic/wager-rooms/internal/modules/broadcast"
	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	"github.com/eskrenkovic/wager-rooms/internal/modules/countdown"
	gamesession "github.com/eskrenkovic/wager-rooms/internal/modules/game-session"
	gamesessioncommands "github.com/eskrenkovic/wager-rooms/internal/modules/game-session/commands"
	gamesessiondomain "github.com/eskrenkovic/wager-rooms/internal/modules/game-session/domain"
	gamesessionqueries "github.com/eskrenkovic/wager-rooms/internal/modules/game-session/queries"
	"github.com/eskrenkovic/wager-rooms/internal/modules/player"
	"github.com/eskrenkovic/wager-rooms/internal/modules/realtime"
	"github.com/eskrenkovic/wager-rooms/internal/modules/room"
	roomcommands "github.com/eskrenkovic/wager-rooms/internal/modules/room/commands"
	roomdomain "github.com/eskrenkovic/wager-rooms/internal/modules/room/domain"
	roomqueries "github.com/eskrenkovic/wager-rooms/internal/modules/room/queries"
	"github.com/eskrenkovic/wager-rooms/internal/modules/wallet"
	walletqueries "github.com/eskrenkovic/wager-rooms/internal/modules/wallet/queries"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/migrate-go"
	"github.com/go-chi/chi"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type Server interface {
	Start() error
	Stop() error
}

var _ Server = &HTTPServer{}

// HTTPServer acts as the composition root for an application.
type HTTPServer struct {
	logger *zap.Logger
	server *http.Server
	db     *sql.DB
}

type stores struct {
	directory player.Directory
	ledger    wallet.Ledger
	rooms     room.Store
	sessions  gamesession.Store
}

func NewHTTPServer(config config.Config) (*HTTPServer, error) {
	baseCtx := context.Background()
	logger := config.Logger

	server := http.Server{
		Addr: net.JoinHostPort("", strconv.Itoa(config.Port)),
	}

	var (
		s   stores
		db  *sql.DB
		err error
	)

	if config.DatabaseURL == "" {
		s = memoryStores(config.SeedPlayers)
		logger.Info("using in-memory stores", zap.Int("seeded_players", len(config.SeedPlayers)))
	} else {
		db, err = sql.Open("postgres", config.DatabaseURL)
		if err != nil {
			return nil, err
		}

		if err := migrate.Run(baseCtx, db, config.MigrationsPath); err != nil {
			return nil, err
		}

		s, err = postgresStores(baseCtx, db, config.SeedPlayers)
		if err != nil {
			return nil, err
		}
		logger.Info("using postgres stores", zap.Int("seeded_players", len(config.SeedPlayers)))
	}

	hub := broadcast.NewHub(logger)
	serializer := core.NewSerializer(logger)
	scheduler := countdown.NewScheduler(config.Countdown.Seconds, config.Countdown.Tick)

	roomEngine := room.NewEngine(logger, s.rooms, s.directory, hub, serializer, scheduler)
	sessionEngine := gamesession.NewEngine(logger, s.sessions, s.ledger, roomEngine, hub, serializer)
	roomEngine.SetSessions(sessionEngine)

	requestLoggingBehavior := core.RequestLoggingBehavior{Logger: logger}
	handlerErrorLoggingBehavior := core.HandlerErrorLoggingBehavior{Logger: logger}
	requestValidationBehavior := core.RequestValidationBehavior{}

	mediator.RegisterPipelineBehavior(&requestLoggingBehavior)
	mediator.RegisterPipelineBehavior(&handlerErrorLoggingBehavior)
	mediator.RegisterPipelineBehavior(&requestValidationBehavior)

	// handler registration

	if err := registerRoomHandlers(roomEngine); err != nil {
		return nil, err
	}

	if err := registerGameSessionHandlers(sessionEngine); err != nil {
		return nil, err
	}

	// wallet

	err = mediator.RegisterRequestHandler[walletqueries.GetBalanceQuery, walletqueries.GetBalanceResponse](
		walletqueries.NewGetBalanceQueryHandler(s.ledger),
	)
	if err != nil {
		return nil, err
	}

	r := router{
		mux: chi.NewRouter(),
		middleware: []httpMiddleware{
			baseContextMiddleware(baseCtx),
			core.CorrelationIDHTTPMiddleware,
			core.LoggerMiddleware(logger),
		},
	}

	authenticated := player.AuthenticationMiddleware(s.directory)
	socketHandler := realtime.NewHandler(logger, hub)

	// http

	r.register("POST /rooms", roomcommands.HandleCreateRoom, authenticated)
	r.register("POST /rooms/join", roomcommands.HandleJoinRoomByCode, authenticated)
	r.register("GET /rooms/{id}", roomqueries.HandleGetRoom, authenticated)
	r.register("GET /rooms/{id}/session", gamesessionqueries.HandleGetCurrentSession, authenticated)
	r.register("GET /rooms/{id}/ws", socketHandler.HandleRoomSocket, authenticated)

	r.register("GET /sessions/{id}", gamesessionqueries.HandleGetSession, authenticated)
	r.register("POST /sessions/{id}/bets", gamesessioncommands.HandlePlaceBet, authenticated)
	r.register("PUT /sessions/{id}/configuration", gamesessioncommands.HandleConfigureSession, authenticated)
	r.register("POST /sessions/{id}/actions/resolve", gamesessioncommands.HandleResolveGame, authenticated)

	r.register("GET /wallet/balance", walletqueries.HandleGetBalance, authenticated)

	server.Handler = r.mux

	return &HTTPServer{logger: logger, server: &server, db: db}, nil
}

func memoryStores(seeds []player.Seed) stores {
	ledger := wallet.NewMemoryLedger()
	directory := player.NewMemoryDirectory(player.NewSHA256TokenHasher(), ledger)

	for _, seed := range seeds {
		ledger.Open(seed.ID(), seed.Balance)
		directory.Register(seed)
	}

	return stores{
		directory: directory,
		ledger:    ledger,
		rooms:     room.NewMemoryStore(),
		sessions:  gamesession.NewMemoryStore(),
	}
}

func postgresStores(ctx context.Context, db *sql.DB, seeds []player.Seed) (stores, error) {
	directory := player.NewPostgresDirectory(db, player.NewSHA256TokenHasher())

	for _, seed := range seeds {
		if _, err := directory.Register(ctx, seed); err != nil {
			return stores{}, err
		}
	}

	return stores{
		directory: directory,
		ledger:    wallet.NewPostgresLedger(db),
		rooms:     room.NewPostgresStore(db),
		sessions:  gamesession.NewPostgresStore(db),
	}, nil
}

func registerRoomHandlers(engine *room.Engine) error {
	err := mediator.RegisterRequestHandler[roomcommands.CreateRoomCommand, roomdomain.View](
		roomcommands.NewCreateRoomCommandHandler(engine),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[roomcommands.JoinRoomCommand, roomdomain.View](
		roomcommands.NewJoinRoomCommandHandler(engine),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[roomcommands.JoinRoomByCodeCommand, roomdomain.View](
		roomcommands.NewJoinRoomByCodeCommandHandler(engine),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[roomcommands.LeaveRoomCommand, roomdomain.View](
		roomcommands.NewLeaveRoomCommandHandler(engine),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[roomcommands.SetMinPlayersCommand, roomdomain.View](
		roomcommands.NewSetMinPlayersCommandHandler(engine),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[roomcommands.StartGameCommand, core.Unit](
		roomcommands.NewStartGameCommandHandler(engine),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[roomcommands.CancelStartCommand, roomdomain.View](
		roomcommands.NewCancelStartCommandHandler(engine),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[roomcommands.ResetRoomCommand, roomdomain.View](
		roomcommands.NewResetRoomCommandHandler(engine),
	)
	if err != nil {
		return err
	}

	return mediator.RegisterRequestHandler[roomqueries.GetRoomQuery, roomdomain.View](
		roomqueries.NewGetRoomQueryHandler(engine),
	)
}

func registerGameSessionHandlers(engine *gamesession.Engine) error {
	err := mediator.RegisterRequestHandler[gamesessioncommands.PlaceBetCommand, gamesessiondomain.Bet](
		gamesessioncommands.NewPlaceBetCommandHandler(engine),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[gamesessioncommands.ResolveGameCommand, gamesession.Result](
		gamesessioncommands.NewResolveGameCommandHandler(engine),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[gamesessioncommands.ConfigureSessionCommand, gamesessiondomain.Summary](
		gamesessioncommands.NewConfigureSessionCommandHandler(engine),
	)
	if err != nil {
		return err
	}

	err = mediator.RegisterRequestHandler[gamesessionqueries.GetSessionQuery, gamesessiondomain.Summary](
		gamesessionqueries.NewGetSessionQueryHandler(engine),
	)
	if err != nil {
		return err
	}

	return mediator.RegisterRequestHandler[gamesessionqueries.GetCurrentSessionQuery, gamesessiondomain.Summary](
		gamesessionqueries.NewGetCurrentSessionQueryHandler(engine),
	)
}

// Handler exposes the routes without binding a listener.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	s.logger.Info("listening", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop() error {
	err := s.server.Close()

	if s.db != nil {
		if dbErr := s.db.Close(); dbErr != nil && err == nil {
			err = dbErr
		}
	}

	_ = s.logger.Sync()

	return err
}

type httpMiddleware func(http.HandlerFunc) http.HandlerFunc

type router struct {
	mux        *chi.Mux
	middleware []httpMiddleware
}

// register takes a "METHOD /path" pattern.
func (r *router) register(pattern string, handler http.HandlerFunc, middleware ...httpMiddleware) {
	method, route, found := strings.Cut(pattern, " ")
	if !found {
		panic("route pattern must be \"METHOD /path\": " + pattern)
	}

	h := handler

	allMiddleware := append(append([]httpMiddleware{}, r.middleware...), middleware...)

	for i := len(allMiddleware) - 1; i >= 0; i-- {
		h = allMiddleware[i](h)
	}

	r.mux.Method(method, route, h)
}

func baseContextMiddleware(baseCtx context.Context) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			baseCtx := baseCtx

			if v, ok := ctx.Value(http.ServerContextKey).(*http.Server); ok {
				baseCtx = context.WithValue(baseCtx, http.ServerContextKey, v)
			}

			if v, ok := ctx.Value(http.LocalAddrContextKey).(net.Addr); ok {
				baseCtx = context.WithValue(baseCtx, http.LocalAddrContextKey, v)
			}

			if v, ok := ctx.Value(chi.RouteCtxKey).(*chi.Context); ok {
				baseCtx = context.WithValue(baseCtx, chi.RouteCtxKey, v)
			}

			next.ServeHTTP(w, r.WithContext(baseCtx))
		}
	}
}
