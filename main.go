package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"smartbus/internal/booking"
	"smartbus/internal/clock"
	intconfig "smartbus/internal/config"
	intdb "smartbus/internal/db"
	"smartbus/internal/events"
	router "smartbus/internal/http"
	h "smartbus/internal/http/handlers"
	"smartbus/internal/repositories"
	"smartbus/internal/services"
	"smartbus/internal/session"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	dialect := intdb.ParseDialect(env.DB.Driver)
	db, err := intconfig.ConnectDB(env.DB)
	if err != nil {
		log.Fatalf("[DB] connect failed: %v", err)
	}
	defer db.Close()

	clk := clock.Real()

	sessions, closeSessions := openSessionStore(env, clk)
	defer closeSessions()
	unsubscribe := sessions.Subscribe(func(ch session.Change) {
		log.Printf("[SESSION] %s session=%s company_id=%d", ch.Kind, ch.Session.ID, ch.Session.CompanyID)
	})
	defer unsubscribe()

	pub := openPublisher(env)
	defer pub.Close()

	buses := repositories.BusRepository{DB: db, Dialect: dialect}
	locations := repositories.DriverLocationRepository{DB: db, Dialect: dialect}

	bookings := services.NewBookingService(buses, clk, pub, services.BookingConfig{
		Flow:          booking.FlowConfig{Capacity: env.BusCapacity, PricePerSeat: env.TicketPrice},
		OccupiedSeats: env.OccupiedSeats,
		PaymentDelay:  env.PaymentDelay,
		IdleTimeout:   env.SessionIdle,
	})

	hd := &h.Handler{
		Auth: services.AuthService{
			Users:    repositories.UserRepository{DB: db, Dialect: dialect},
			Admins:   repositories.AdminRepository{DB: db, Dialect: dialect},
			Sessions: sessions,
			Clock:    clk,
			Secret:   []byte(env.JWTSecret),
			TokenTTL: env.TokenTTL,
		},
		Buses:    services.BusService{Buses: buses, Locations: locations, DefaultPrice: env.TicketPrice},
		Admin:    services.AdminService{Buses: buses, Location: env.Location},
		Bookings: bookings,
		Clock:    clk,
		DB:       db,
		Dialect:  dialect,
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	go bookings.RunBackgroundCleanup(workerCtx)

	r := router.NewRouter(env, hd)

	// WriteTimeout stays unset: countdown streams are long-lived.
	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server running at http://localhost%s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped cleanly.")
}

// openSessionStore uses Redis when REDIS_ADDR is set so admin sessions
// survive restarts and are shared between instances.
func openSessionStore(env intconfig.Env, clk clock.Clock) (session.Store, func()) {
	if env.RedisAddr == "" {
		log.Println("[SESSION] REDIS_ADDR not set, using in-memory admin sessions")
		return session.NewMemoryStore(clk, env.SessionTTL), func() {}
	}

	rdb := redis.NewClient(&redis.Options{Addr: env.RedisAddr, Password: env.RedisPass})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("[SESSION] redis ping failed: %v", err)
	}
	log.Printf("[SESSION] redis connected at %s", env.RedisAddr)
	return session.NewRedisStore(rdb, clk, env.SessionTTL), func() { _ = rdb.Close() }
}

func openPublisher(env intconfig.Env) events.Publisher {
	if env.AMQPURL == "" {
		log.Println("[EVENTS] AMQP_URL not set, ticket events are not published")
		return events.Noop{}
	}
	pub, err := events.NewAMQPPublisher(env.AMQPURL)
	if err != nil {
		log.Fatalf("[EVENTS] rabbitmq connect failed: %v", err)
	}
	return pub
}